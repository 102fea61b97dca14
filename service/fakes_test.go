package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"lexai-backend/chunking"
	"lexai-backend/embedding"
	"lexai-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

type chunkKey struct {
	caseNo  string
	section models.SectionName
	index   int
}

type fakeChunkStore struct {
	mu         sync.Mutex
	nextID     int64
	decisions  map[string]int64
	chunks     map[chunkKey]models.StoredChunk
	embedded   map[int64][]float32
	tokens     map[int64]int
	failInsert func(caseNo string, chunk models.Chunk) error
	failUpsert error
	failUpdate map[int64]error
	neighbors  []models.ChunkNeighbor
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{
		decisions:  make(map[string]int64),
		chunks:     make(map[chunkKey]models.StoredChunk),
		embedded:   make(map[int64][]float32),
		tokens:     make(map[int64]int),
		failUpdate: make(map[int64]error),
	}
}

func (f *fakeChunkStore) UpsertCaseMetadata(_ context.Context, caseNo string, _ models.CaseMetadata) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpsert != nil {
		return 0, f.failUpsert
	}
	if id, ok := f.decisions[caseNo]; ok {
		return id, nil
	}
	f.nextID++
	f.decisions[caseNo] = f.nextID
	return f.nextID, nil
}

func (f *fakeChunkStore) InsertChunkIfAbsent(_ context.Context, decisionID int64, chunk models.Chunk) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if chunk.CaseNo == nil {
		return nil, errors.New("missing case_no")
	}
	if f.failInsert != nil {
		if err := f.failInsert(*chunk.CaseNo, chunk); err != nil {
			return nil, err
		}
	}
	key := chunkKey{caseNo: *chunk.CaseNo, section: chunk.Section, index: chunk.ChunkIndex}
	if _, ok := f.chunks[key]; ok {
		return nil, nil
	}
	f.nextID++
	id := f.nextID
	f.chunks[key] = models.StoredChunk{
		ID:         id,
		DecisionID: decisionID,
		CaseNo:     key.caseNo,
		Section:    key.section,
		ChunkIndex: key.index,
		Text:       chunk.Text,
	}
	return &id, nil
}

func (f *fakeChunkStore) FetchChunksMissingEmbedding(_ context.Context, limit int) ([]models.StoredChunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.StoredChunk
	for _, c := range f.chunks {
		if _, ok := f.embedded[c.ID]; !ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeChunkStore) UpdateEmbedding(_ context.Context, id int64, vec []float32, tokenCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failUpdate[id]; err != nil {
		return err
	}
	f.embedded[id] = vec
	f.tokens[id] = tokenCount
	return nil
}

func (f *fakeChunkStore) NearestNeighbors(_ context.Context, _ []float32, k int, _ int) ([]models.ChunkNeighbor, error) {
	out := f.neighbors
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// keys returns stored chunk keys for a case, ordered by section then index
func (f *fakeChunkStore) keys(caseNo string) []chunkKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chunkKey
	for k := range f.chunks {
		if k.caseNo == caseNo {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].section != out[j].section {
			return out[i].section < out[j].section
		}
		return out[i].index < out[j].index
	})
	return out
}

func (f *fakeChunkStore) snapshot() map[chunkKey]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[chunkKey]string, len(f.chunks))
	for k, c := range f.chunks {
		out[k] = c.Text
	}
	return out
}

type fakeCheckpointStore struct {
	url     *string
	saves   []string
	loadErr error
	saveErr error
}

func (f *fakeCheckpointStore) Load(context.Context) (*string, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.url, nil
}

func (f *fakeCheckpointStore) Save(_ context.Context, url string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, url)
	f.url = &url
	return nil
}

type fakeGateway struct {
	mu    sync.Mutex
	dim   int
	fail  map[string]error
	calls map[embedding.Role][]string
}

func newFakeGateway(dim int) *fakeGateway {
	return &fakeGateway{
		dim:   dim,
		fail:  make(map[string]error),
		calls: make(map[embedding.Role][]string),
	}
}

func (g *fakeGateway) Encode(_ context.Context, text string, role embedding.Role) ([]float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls[role] = append(g.calls[role], text)
	if err := g.fail[text]; err != nil {
		return nil, err
	}
	vec := make([]float32, g.dim)
	vec[0] = 1
	return vec, nil
}

type fakeRunStore struct {
	mu      sync.Mutex
	runs    map[uuid.UUID]*models.IngestionRun
	updates int
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[uuid.UUID]*models.IngestionRun)}
}

func (f *fakeRunStore) Create(_ context.Context, run *models.IngestionRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = uuid.New()
	stored := *run
	f.runs[run.ID] = &stored
	return nil
}

func (f *fakeRunStore) GetByID(_ context.Context, id uuid.UUID) (*models.IngestionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *run
	return &out, nil
}

func (f *fakeRunStore) GetActiveByKind(_ context.Context, kind models.RunKind) (*models.IngestionRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.Kind == kind && run.IsActive() {
			out := *run
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeRunStore) UpdateStatus(_ context.Context, id uuid.UUID, status models.RunStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Status = status
	return nil
}

func (f *fakeRunStore) UpdateStats(_ context.Context, id uuid.UUID, stats models.RunStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Stats = stats
	f.updates++
	return nil
}

func (f *fakeRunStore) Complete(_ context.Context, id uuid.UUID, stats models.RunStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Status = models.RunStatusCompleted
	f.runs[id].Stats = stats
	return nil
}

func (f *fakeRunStore) Fail(_ context.Context, id uuid.UUID, msg string, stats models.RunStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[id].Status = models.RunStatusFailed
	f.runs[id].ErrorMessage = &msg
	f.runs[id].Stats = stats
	return nil
}

// smallBuilder emits one chunk per two-word sentence so tests control chunk counts
func smallBuilder() *chunking.Builder {
	return chunking.NewBuilder(chunking.NewSentenceChunker(
		chunking.WithMaxTokens(2),
		chunking.WithOverlapSentences(0),
		chunking.WithMinChunkTokens(0),
		chunking.WithSplitter(chunking.NewRegexSplitter()),
	))
}

// decisionText returns n two-word sentences tagged with the record name
func decisionText(name string, n int) string {
	sents := make([]string, n)
	for i := range sents {
		sents[i] = fmt.Sprintf("%s%d sentence.", name, i)
	}
	return strings.Join(sents, " ")
}

func jsonl(t *testing.T, records ...models.SourceRecord) string {
	t.Helper()
	var b strings.Builder
	for _, rec := range records {
		line, err := json.Marshal(rec)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func strPtr(s string) *string {
	return &s
}
