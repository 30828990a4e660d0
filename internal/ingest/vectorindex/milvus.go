package vectorindex

import (
	"context"
	"fmt"

	"docuvault/internal/config"
	milvusdb "docuvault/internal/database/milvus"
	"docuvault/internal/models"
	"docuvault/pkg/logger"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// Schema fields of the chunk collection. TenantID is mandatory on every
// record and is the required filter for any retrieval: it is the
// multi-tenant isolation boundary.
const (
	FieldID         = "id"
	FieldTenantID   = "tenant_id"
	FieldDocumentID = "document_id"
	FieldContent    = "content"
	FieldPageNumber = "page_number"
	FieldFilename   = "filename"
	FieldEmbedding  = "embedding"
)

// noPage is stored when a chunk has no page provenance; real pages are
// 1-based.
const noPage = int64(0)

// IndexError reports an unreachable store, a schema mismatch or a failed
// batch write.
type IndexError struct {
	Op  string
	Err error
}

func (e *IndexError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("vector index failure: %s", e.Op)
	}
	return fmt.Sprintf("vector index failure: %s: %v", e.Op, e.Err)
}

func (e *IndexError) Unwrap() error { return e.Err }

// Index is the Milvus-backed vector store for document chunks. The
// collection never vectorizes server-side; vectors are always supplied by
// the embedding engine and must match the configured dimension.
//
// Connections are scoped, not pooled: every batch of operations dials,
// runs, and releases on all exit paths. Concurrent batches from different
// documents each hold their own connection.
type Index struct {
	cfg       *config.MilvusConfig
	dimension int
	log       *logger.Logger
}

// NewIndex creates an Index writing into the configured collection with
// vectors of the given dimension.
func NewIndex(cfg *config.MilvusConfig, dimension int, log *logger.Logger) *Index {
	return &Index{cfg: cfg, dimension: dimension, log: log}
}

// withSession acquires a connection for one batch of operations and
// guarantees its release, error paths included. Safe to re-enter.
func (ix *Index) withSession(ctx context.Context, fn func(ctx context.Context, conn client.Client) error) error {
	conn, err := milvusdb.Dial(ctx, ix.cfg)
	if err != nil {
		return &IndexError{Op: "connect", Err: err}
	}
	defer conn.Close()
	return fn(ctx, conn)
}

// EnsureSchema idempotently creates the chunk collection and its vector
// index, then loads it. A no-op when the collection already exists.
func (ix *Index) EnsureSchema(ctx context.Context) error {
	return ix.withSession(ctx, func(ctx context.Context, conn client.Client) error {
		exists, err := conn.HasCollection(ctx, ix.cfg.CollectionName)
		if err != nil {
			return &IndexError{Op: "check collection", Err: err}
		}

		if !exists {
			schema := entity.NewSchema().
				WithName(ix.cfg.CollectionName).
				WithDescription("Per-chunk document embeddings, scoped by tenant").
				WithField(entity.NewField().WithName(FieldID).
					WithDataType(entity.FieldTypeVarChar).WithMaxLength(36).WithIsPrimaryKey(true)).
				WithField(entity.NewField().WithName(FieldTenantID).
					WithDataType(entity.FieldTypeVarChar).WithMaxLength(36)).
				WithField(entity.NewField().WithName(FieldDocumentID).
					WithDataType(entity.FieldTypeVarChar).WithMaxLength(36)).
				WithField(entity.NewField().WithName(FieldContent).
					WithDataType(entity.FieldTypeVarChar).WithMaxLength(65535)).
				WithField(entity.NewField().WithName(FieldPageNumber).
					WithDataType(entity.FieldTypeInt64)).
				WithField(entity.NewField().WithName(FieldFilename).
					WithDataType(entity.FieldTypeVarChar).WithMaxLength(255)).
				WithField(entity.NewField().WithName(FieldEmbedding).
					WithDataType(entity.FieldTypeFloatVector).WithDim(int64(ix.dimension)))

			if err := conn.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
				return &IndexError{Op: "create collection", Err: err}
			}

			idx, err := entity.NewIndexIvfFlat(entity.L2, 128)
			if err != nil {
				return &IndexError{Op: "build index definition", Err: err}
			}
			if err := conn.CreateIndex(ctx, ix.cfg.CollectionName, FieldEmbedding, idx, false); err != nil {
				return &IndexError{Op: "create vector index", Err: err}
			}

			ix.log.Info(fmt.Sprintf("Created Milvus collection '%s' (dim=%d)", ix.cfg.CollectionName, ix.dimension))
		}

		if err := conn.LoadCollection(ctx, ix.cfg.CollectionName, false); err != nil {
			return &IndexError{Op: "load collection", Err: err}
		}
		return nil
	})
}

// Upsert writes one record per chunk in a single batched insert. A failed
// batch never leaves a partial set of records queryable for the document:
// on any write error a compensating delete by document id runs before the
// error is returned.
func (ix *Index) Upsert(ctx context.Context, doc *models.Document, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return &IndexError{Op: fmt.Sprintf("mismatch between number of chunks (%d) and vectors (%d)", len(chunks), len(vectors))}
	}
	if len(chunks) == 0 {
		return nil
	}
	for i, v := range vectors {
		if len(v) != ix.dimension {
			return &IndexError{Op: fmt.Sprintf("vector %d has dimension %d, schema expects %d", i, len(v), ix.dimension)}
		}
	}

	ids := make([]string, len(chunks))
	tenants := make([]string, len(chunks))
	docIDs := make([]string, len(chunks))
	contents := make([]string, len(chunks))
	pages := make([]int64, len(chunks))
	filenames := make([]string, len(chunks))

	for i, chunk := range chunks {
		ids[i] = uuid.New().String()
		tenants[i] = doc.TenantID
		docIDs[i] = doc.ID
		contents[i] = chunk.Text
		if chunk.PageNumber != nil {
			pages[i] = int64(*chunk.PageNumber)
		} else {
			pages[i] = noPage
		}
		filenames[i] = doc.OriginalFilename
	}

	return ix.withSession(ctx, func(ctx context.Context, conn client.Client) error {
		_, err := conn.Insert(ctx, ix.cfg.CollectionName, "" /* default partition */,
			entity.NewColumnVarChar(FieldID, ids),
			entity.NewColumnVarChar(FieldTenantID, tenants),
			entity.NewColumnVarChar(FieldDocumentID, docIDs),
			entity.NewColumnVarChar(FieldContent, contents),
			entity.NewColumnInt64(FieldPageNumber, pages),
			entity.NewColumnVarChar(FieldFilename, filenames),
			entity.NewColumnFloatVector(FieldEmbedding, ix.dimension, vectors),
		)
		if err != nil {
			ix.compensate(ctx, conn, doc)
			return &IndexError{Op: "batch insert", Err: err}
		}

		if err := conn.Flush(ctx, ix.cfg.CollectionName, false); err != nil {
			ix.compensate(ctx, conn, doc)
			return &IndexError{Op: "flush", Err: err}
		}

		ix.log.WithDocument(doc.TenantID, doc.ID).
			Info(fmt.Sprintf("Inserted %d records into collection '%s'", len(chunks), ix.cfg.CollectionName))
		return nil
	})
}

// compensate removes whatever the failed batch may have written so a
// FAILED document never has queryable records. Best effort: the original
// write error is what the caller sees.
func (ix *Index) compensate(ctx context.Context, conn client.Client, doc *models.Document) {
	expr := documentExpr(doc.TenantID, doc.ID)
	if err := conn.Delete(ctx, ix.cfg.CollectionName, "", expr); err != nil {
		ix.log.WithDocument(doc.TenantID, doc.ID).
			Error(fmt.Sprintf("Compensating delete failed, orphaned records may remain: %v", err))
	}
}

// DeleteByDocument removes every record of a document. Used when a
// document is deleted and by failure compensation.
func (ix *Index) DeleteByDocument(ctx context.Context, tenantID, documentID string) error {
	return ix.withSession(ctx, func(ctx context.Context, conn client.Client) error {
		expr := documentExpr(tenantID, documentID)
		if err := conn.Delete(ctx, ix.cfg.CollectionName, "", expr); err != nil {
			return &IndexError{Op: "delete by document", Err: err}
		}
		return nil
	})
}

// documentExpr builds the boolean filter selecting one document's records.
// The tenant id is always part of the filter.
func documentExpr(tenantID, documentID string) string {
	return fmt.Sprintf(`%s == "%s" and %s == "%s"`, FieldTenantID, tenantID, FieldDocumentID, documentID)
}
