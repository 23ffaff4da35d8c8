package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sevigo/campusrag/embeddings"
	"github.com/sevigo/campusrag/schema"
	"github.com/sevigo/campusrag/vectorstores"
)

var (
	ErrMissingEmbedder     = errors.New("qdrant: embedder is required but not provided")
	ErrInvalidNumDocuments = errors.New("qdrant: number of documents must be positive")
	ErrEmptyFilter         = errors.New("qdrant: refusing to delete with an empty filter")
)

// pointNamespace seeds the name-based point IDs.
var pointNamespace = uuid.MustParse("6f1f3c4e-2b1d-5a57-9a8e-4c0d7c1b2a90")

const (
	retryDelay    = 500 * time.Millisecond
	sourceFileKey = "source_file"
)

// Store keeps chunk embeddings in a Qdrant collection. Point IDs are derived
// from the chunk's origin, so indexing the same chunk twice overwrites it.
type Store struct {
	client         *qdrant.Client
	embedder       embeddings.Embedder
	collectionName string
	logger         *slog.Logger
	options        options
}

var _ vectorstores.VectorStore = (*Store)(nil)

func New(opts ...Option) (*Store, error) {
	o, err := parseOptions(opts...)
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("component", "qdrant_store", "collection", o.collectionName)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   o.host,
		Port:   o.port,
		APIKey: o.apiKey,
		UseTLS: o.useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	logger.Info("Qdrant store initialized", "config", o.String())
	return &Store{
		client:         client,
		embedder:       o.embedder,
		collectionName: o.collectionName,
		logger:         logger,
		options:        o,
	}, nil
}

// Close releases the gRPC connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// AddDocuments embeds docs and upserts them in batches. It returns the point
// IDs in input order.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	if len(docs) == 0 {
		return []string{}, nil
	}
	if s.embedder == nil {
		return nil, ErrMissingEmbedder
	}

	start := time.Now()
	collection := s.collection(vectorstores.ParseOptions(options...))
	if err := s.ensureCollection(ctx, collection); err != nil {
		return nil, fmt.Errorf("collection preparation failed: %w", err)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("document embedding failed: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		ids[i] = PointID(doc)
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(ids[i]),
			Vectors: qdrant.NewVectorsDense(vectors[i]),
			Payload: documentToPayload(doc, s.options.contentKey),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.options.concurrency)
	for batch := range slices.Chunk(points, s.options.batchSize) {
		g.Go(func() error {
			return s.upsertWithRetry(gctx, collection, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Documents indexed", "count", len(docs), "duration", time.Since(start))
	return ids, nil
}

func (s *Store) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	wait := true
	var lastErr error
	for attempt := 0; attempt <= s.options.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		_, err := s.client.GetPointsClient().Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           &wait,
			Points:         points,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.WarnContext(ctx, "Upsert attempt failed", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("upsert failed after %d attempts: %w", s.options.retryAttempts+1, lastErr)
}

func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	scored, err := s.SimilaritySearchWithScores(ctx, query, numDocuments, options...)
	if err != nil {
		return nil, err
	}
	docs := make([]schema.Document, len(scored))
	for i, d := range scored {
		docs[i] = d.Document
	}
	return docs, nil
}

// SimilaritySearchWithScores returns the nearest chunks by cosine similarity,
// honouring the score threshold and metadata filters.
func (s *Store) SimilaritySearchWithScores(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]vectorstores.DocumentWithScore, error) {
	if strings.TrimSpace(query) == "" {
		return []vectorstores.DocumentWithScore{}, nil
	}
	if numDocuments <= 0 {
		return nil, ErrInvalidNumDocuments
	}
	if s.embedder == nil {
		return nil, ErrMissingEmbedder
	}

	opts := vectorstores.ParseOptions(options...)
	collection := s.collection(opts)

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	req := &qdrant.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          uint64(numDocuments),
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         BuildFilter(opts.Filters),
	}
	if opts.ScoreThreshold > 0 {
		req.ScoreThreshold = &opts.ScoreThreshold
	}

	start := time.Now()
	resp, err := s.client.GetPointsClient().Search(ctx, req)
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return nil, vectorstores.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := resp.GetResult()
	out := make([]vectorstores.DocumentWithScore, len(results))
	for i, point := range results {
		out[i] = vectorstores.DocumentWithScore{
			Document: payloadToDocument(point.GetPayload(), s.options.contentKey),
			Score:    point.GetScore(),
		}
	}
	s.logger.DebugContext(ctx, "Search completed", "results", len(out), "duration", time.Since(start))
	return out, nil
}

// DeleteDocumentsByFilter removes every point whose payload matches all filters.
func (s *Store) DeleteDocumentsByFilter(ctx context.Context, filters map[string]any, options ...vectorstores.Option) error {
	filter := BuildFilter(filters)
	if filter == nil {
		return ErrEmptyFilter
	}
	collection := s.collection(vectorstores.ParseOptions(options...))

	wait := true
	_, err := s.client.GetPointsClient().Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete documents by filter: %w", err)
	}
	s.logger.InfoContext(ctx, "Documents deleted by filter", "filter_keys", slices.Sorted(maps.Keys(filters)))
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list qdrant collections: %w", err)
	}
	return names, nil
}

// DeleteCollection drops a collection and all its points.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		if stat, ok := status.FromError(err); ok && stat.Code() == codes.NotFound {
			return vectorstores.ErrCollectionNotFound
		}
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	s.logger.InfoContext(ctx, "Collection deleted", "name", name)
	return nil
}

// Health checks that the server answers.
func (s *Store) Health(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

func (s *Store) collection(opts vectorstores.Options) string {
	if opts.NameSpace != "" {
		return opts.NameSpace
	}
	return s.collectionName
}

func (s *Store) ensureCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	dimension, err := s.embedder.GetDimension(ctx)
	if err != nil {
		return fmt.Errorf("could not get embedder dimension: %w", err)
	}

	s.logger.InfoContext(ctx, "Creating collection", "dimension", dimension)
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create qdrant collection: %w", err)
	}

	// source_file backs re-indexing deletes.
	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: name,
		FieldName:      sourceFileKey,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", sourceFileKey, err)
	}
	return nil
}

// PointID derives a stable UUID for a document. An explicit "id" metadata
// value wins; otherwise source_file with chunk_id, or with page and content
// when the chunk was never stored.
func PointID(doc schema.Document) string {
	if id, ok := doc.Metadata["id"].(string); ok && id != "" {
		if _, err := uuid.Parse(id); err == nil {
			return id
		}
		return uuid.NewSHA1(pointNamespace, []byte(id)).String()
	}

	source := fmt.Sprint(doc.Metadata[sourceFileKey])
	var key string
	if chunkID, ok := doc.Metadata["chunk_id"]; ok {
		key = fmt.Sprintf("%s#%v", source, chunkID)
	} else {
		key = fmt.Sprintf("%s#%v#%s", source, doc.Metadata["page_number"], doc.PageContent)
	}
	return uuid.NewSHA1(pointNamespace, []byte(key)).String()
}

func documentToPayload(doc schema.Document, contentKey string) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(doc.Metadata)+1)
	for key, value := range doc.Metadata {
		payload[key] = toValue(value)
	}
	payload[contentKey] = qdrant.NewValueString(doc.PageContent)
	return payload
}

func toValue(value any) *qdrant.Value {
	switch v := value.(type) {
	case string:
		return qdrant.NewValueString(v)
	case int:
		return qdrant.NewValueInt(int64(v))
	case int32:
		return qdrant.NewValueInt(int64(v))
	case int64:
		return qdrant.NewValueInt(v)
	case float32:
		return qdrant.NewValueDouble(float64(v))
	case float64:
		return qdrant.NewValueDouble(v)
	case bool:
		return qdrant.NewValueBool(v)
	case []string:
		values := make([]*qdrant.Value, len(v))
		for i, str := range v {
			values[i] = qdrant.NewValueString(str)
		}
		return qdrant.NewValueFromList(values...)
	case nil:
		return qdrant.NewValueNull()
	default:
		return qdrant.NewValueString(fmt.Sprintf("%v", v))
	}
}

func payloadToDocument(payload map[string]*qdrant.Value, contentKey string) schema.Document {
	doc := schema.NewDocument("", nil)
	for key, value := range payload {
		if key == contentKey {
			doc.PageContent = value.GetStringValue()
			continue
		}
		if v := fromValue(value); v != nil {
			doc.Metadata[key] = v
		}
	}
	return doc
}

func fromValue(value *qdrant.Value) any {
	switch v := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(v.ListValue.GetValues()))
		for i, val := range v.ListValue.GetValues() {
			list[i] = fromValue(val)
		}
		return list
	default:
		return nil
	}
}

// BuildFilter turns exact-match metadata filters into a Qdrant "must"
// filter. Unsupported value types are skipped. Nil means no filter.
func BuildFilter(filters map[string]any) *qdrant.Filter {
	if len(filters) == 0 {
		return nil
	}

	var conditions []*qdrant.Condition
	for _, key := range slices.Sorted(maps.Keys(filters)) {
		switch v := filters[key].(type) {
		case string:
			conditions = append(conditions, qdrant.NewMatchKeyword(key, v))
		case int:
			conditions = append(conditions, qdrant.NewMatchInt(key, int64(v)))
		case int64:
			conditions = append(conditions, qdrant.NewMatchInt(key, v))
		case bool:
			conditions = append(conditions, qdrant.NewMatchBool(key, v))
		case []string:
			conditions = append(conditions, qdrant.NewMatchKeywords(key, v...))
		default:
			slog.Warn("Unsupported filter type", "key", key, "type", fmt.Sprintf("%T", v))
		}
	}
	if len(conditions) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: conditions}
}
