// Package semantic owns all Qdrant operations for the job and document
// vector collections: idempotent upsert by entity key and filtered top-k
// similarity search. An unreachable backend surfaces as a typed
// unavailability error that callers treat exactly like "no matches found".
package semantic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"github.com/talentgrid/talentgrid/engine/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Reserved payload fields written on every record.
const (
	payloadKey  = "key"
	payloadText = "text"
)

// pointsAPI is the slice of the Qdrant points service the store calls.
type pointsAPI interface {
	Upsert(ctx context.Context, in *pb.UpsertPoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Delete(ctx context.Context, in *pb.DeletePoints, opts ...grpc.CallOption) (*pb.PointsOperationResponse, error)
	Search(ctx context.Context, in *pb.SearchPoints, opts ...grpc.CallOption) (*pb.SearchResponse, error)
}

// collectionsAPI is the slice of the Qdrant collections service the store
// calls.
type collectionsAPI interface {
	List(ctx context.Context, in *pb.ListCollectionsRequest, opts ...grpc.CallOption) (*pb.ListCollectionsResponse, error)
	Create(ctx context.Context, in *pb.CreateCollection, opts ...grpc.CallOption) (*pb.CollectionOperationResponse, error)
}

// The generated clients must keep satisfying the narrowed contracts.
var (
	_ pointsAPI      = pb.PointsClient(nil)
	_ collectionsAPI = pb.CollectionsClient(nil)
)

// Store wraps one Qdrant collection.
type Store struct {
	conn        *grpc.ClientConn
	points      pointsAPI
	collections collectionsAPI
	collection  string
}

// New dials Qdrant at the given gRPC address and binds to a collection.
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("semantic: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// NewWithClients builds a Store over existing clients. Used by tests and by
// callers sharing one connection across collections.
func NewWithClients(points pointsAPI, collections collectionsAPI, collection string) *Store {
	return &Store{points: points, collections: collections, collection: collection}
}

// Close closes the underlying gRPC connection, if this Store owns one.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// EnsureCollection creates the collection with cosine distance if missing.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("semantic: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: create collection %s: %w", s.collection, err)
	}
	return nil
}

// PointID derives the deterministic point UUID for an entity key. Upserts for
// the same key always land on the same point, which makes re-indexing
// idempotent.
func PointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// Upsert stores one record, replacing any prior vector for the same key.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if s == nil || s.points == nil {
		return domain.ErrIndexUnavailable
	}
	if rec.Key == "" || len(rec.Embedding) == 0 {
		return fmt.Errorf("semantic: %w: key and embedding required", domain.ErrEmptyInput)
	}

	payload := make(map[string]*pb.Value, len(rec.Payload)+2)
	payload[payloadKey] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: rec.Key}}
	payload[payloadText] = &pb.Value{Kind: &pb.Value_StringValue{StringValue: rec.Text}}
	for k, val := range rec.Payload {
		payload[k] = toValue(val)
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: []*pb.PointStruct{{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(rec.Key)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: rec.Embedding},
				},
			},
			Payload: payload,
		}},
	})
	if err != nil {
		return fmt.Errorf("semantic: upsert %s: %w", rec.Key, domain.ErrIndexUnavailable)
	}
	return nil
}

// Delete removes the vector for a key. Used when a job is closed out of the
// searchable set.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.points == nil {
		return domain.ErrIndexUnavailable
	}
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Points{
				Points: &pb.PointsIdsList{
					Ids: []*pb.PointId{{PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(key)}}},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("semantic: delete %s: %w", key, domain.ErrIndexUnavailable)
	}
	return nil
}

// Query runs filtered top-k similarity search. Results come back ordered by
// descending similarity as scored by the index.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, filters map[string]string) ([]Hit, error) {
	if s == nil || s.points == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if len(embedding) == 0 || k <= 0 {
		return nil, nil
	}

	req := &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         embedding,
		Limit:          uint64(k),
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	}
	if len(filters) > 0 {
		must := make([]*pb.Condition, 0, len(filters))
		for key, val := range filters {
			must = append(must, fieldMatch(key, val))
		}
		req.Filter = &pb.Filter{Must: must}
	}

	resp, err := s.points.Search(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("semantic: search: %w", domain.ErrIndexUnavailable)
	}

	hits := make([]Hit, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		h := Hit{
			Score:   r.GetScore(),
			Payload: make(map[string]string),
		}
		for k, val := range r.GetPayload() {
			sv := val.GetStringValue()
			switch k {
			case payloadKey:
				h.Key = sv
			case payloadText:
				h.Text = sv
			default:
				h.Payload[k] = valueString(val)
			}
		}
		hits[i] = h
	}
	return hits, nil
}

func toValue(val any) *pb.Value {
	switch tv := val.(type) {
	case string:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: tv}}
	case int:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(tv)}}
	case int64:
		return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: tv}}
	case float64:
		return &pb.Value{Kind: &pb.Value_DoubleValue{DoubleValue: tv}}
	case bool:
		return &pb.Value{Kind: &pb.Value_BoolValue{BoolValue: tv}}
	default:
		return &pb.Value{Kind: &pb.Value_StringValue{StringValue: fmt.Sprint(tv)}}
	}
}

func valueString(val *pb.Value) string {
	switch k := val.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_IntegerValue:
		return fmt.Sprintf("%d", k.IntegerValue)
	case *pb.Value_DoubleValue:
		return fmt.Sprintf("%g", k.DoubleValue)
	case *pb.Value_BoolValue:
		return fmt.Sprintf("%t", k.BoolValue)
	default:
		return ""
	}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
