package service

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceReader(t *testing.T) {
	t.Run("Should decode records and skip blank lines", func(t *testing.T) {
		input := `{"url":"u1","title":"A v. B","text":"body one","year":2020,"month":"jan"}` + "\n\n" +
			`{"url":"u2","text":"body two"}` + "\n"
		r := NewSourceReader(strings.NewReader(input))

		first, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "u1", first.URL)
		assert.Equal(t, "A v. B", first.Title)
		assert.Equal(t, 2020, first.Year)

		second, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "u2", second.URL)
		assert.Equal(t, 3, r.Line())

		_, err = r.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Should report malformed lines with their line number and continue", func(t *testing.T) {
		input := "{broken\n" + `{"text":"no url"}` + "\n" + `{"url":"u3"}` + "\n" + `{"url":"u4","text":"ok"}`
		r := NewSourceReader(strings.NewReader(input))

		for _, want := range []int{1, 2, 3} {
			_, err := r.Next()
			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, want, inputErr.Line)
		}

		rec, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "u4", rec.URL)
	})

	t.Run("Should accept lines longer than the default scanner buffer", func(t *testing.T) {
		long := strings.Repeat("word ", 100000)
		r := NewSourceReader(strings.NewReader(`{"url":"big","text":"` + long + `"}`))

		rec, err := r.Next()

		require.NoError(t, err)
		assert.Len(t, rec.Text, len(long))
	})

	t.Run("Should skip a line over the size cap and read the next record", func(t *testing.T) {
		input := `{"url":"u1","text":"ok"}` + "\n" +
			`{"url":"huge","text":"` + strings.Repeat("x", 500) + `"}` + "\n" +
			`{"url":"u3","text":"ok"}`
		r := NewSourceReader(strings.NewReader(input), SourceWithMaxRecordSize(100))

		first, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "u1", first.URL)

		_, err = r.Next()
		var inputErr *InputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, 2, inputErr.Line)

		third, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, "u3", third.URL)
		assert.Equal(t, 3, r.Line())

		_, err = r.Next()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("Should report an oversized last line without a newline", func(t *testing.T) {
		r := NewSourceReader(strings.NewReader(strings.Repeat("y", 300)), SourceWithMaxRecordSize(100))

		_, err := r.Next()
		var inputErr *InputError
		require.True(t, errors.As(err, &inputErr))

		_, err = r.Next()
		assert.ErrorIs(t, err, io.EOF)
	})
}
