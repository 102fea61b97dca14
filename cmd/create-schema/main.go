package main

import (
	"fmt"
	"os"

	"lexai-backend/app"

	"github.com/spf13/cobra"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS decisions (
    id BIGSERIAL PRIMARY KEY,
    case_no TEXT NOT NULL UNIQUE,
    division TEXT,
    title TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS decision_chunks (
    id BIGSERIAL PRIMARY KEY,
    decision_id BIGINT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
    case_no TEXT NOT NULL,
    section TEXT NOT NULL CHECK (section IN (
        'PREAMBLE', 'DECISION', 'SYLLABUS', 'FACTS', 'ISSUES', 'RULING', 'WHEREFORE', 'FULL_TEXT'
    )),
    chunk_index INTEGER NOT NULL CHECK (chunk_index >= 0),
    text TEXT NOT NULL,
    token_count INTEGER,
    embedding vector(%d),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    CONSTRAINT decision_chunks_case_section_index_key UNIQUE (case_no, section, chunk_index)
);

CREATE TABLE IF NOT EXISTS ingestion_runs (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    kind VARCHAR(20) NOT NULL CHECK (kind IN ('ingest', 'embed')),
    status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
    stats JSONB NOT NULL DEFAULT '{}'::jsonb,
    error_message TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE
);

CREATE TABLE IF NOT EXISTS ingestion_checkpoints (
    name TEXT PRIMARY KEY,
    last_processed_url TEXT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const indexSQL = `
-- Vector similarity (cosine distance); hnsw needs no training rows
DROP INDEX IF EXISTS idx_decision_chunks_embedding;
CREATE INDEX IF NOT EXISTS idx_decision_chunks_embedding_hnsw
    ON decision_chunks USING hnsw (embedding vector_cosine_ops);

CREATE INDEX IF NOT EXISTS idx_decision_chunks_decision
    ON decision_chunks (decision_id, chunk_index);
CREATE INDEX IF NOT EXISTS idx_decision_chunks_case_no
    ON decision_chunks (case_no);
CREATE INDEX IF NOT EXISTS idx_decision_chunks_missing_embedding
    ON decision_chunks (id) WHERE embedding IS NULL;
CREATE INDEX IF NOT EXISTS idx_ingestion_runs_kind_status
    ON ingestion_runs (kind, status, created_at DESC);
`

const triggerSQL = `
CREATE OR REPLACE FUNCTION set_updated_at()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS decisions_set_updated_at ON decisions;
CREATE TRIGGER decisions_set_updated_at
    BEFORE UPDATE ON decisions
    FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS decision_chunks_set_updated_at ON decision_chunks;
CREATE TRIGGER decision_chunks_set_updated_at
    BEFORE UPDATE ON decision_chunks
    FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`

func main() {
	cmd := &cobra.Command{
		Use:          "create-schema",
		Short:        "Create the decision, chunk and run tables (idempotent)",
		SilenceUsage: true,
	}
	flags := app.BindFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := flags.Load(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := app.InitPostgres(ctx, cfg.Database.URL, cfg.Search.MaxK, log)
		if err != nil {
			log.Error("Failed to connect to database", "error", err)
			return err
		}
		defer pool.Close()

		if _, err := pool.Exec(ctx, fmt.Sprintf(schemaSQL, cfg.Embedding.Dimension)); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
		log.Info("✓ Tables ready", "dimension", cfg.Embedding.Dimension)

		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		log.Info("✓ Indexes ready")

		if _, err := pool.Exec(ctx, triggerSQL); err != nil {
			return fmt.Errorf("failed to create triggers: %w", err)
		}
		log.Info("✓ updated_at triggers ready")

		log.Info("✅ Schema created successfully")
		return nil
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
