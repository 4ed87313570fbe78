package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
)

const bitmaskPK = "BITMASK"

type bitmaskItem struct {
	PK    string `dynamodbav:"PK"`
	SK    string `dynamodbav:"SK"`
	Level int    `dynamodbav:"Level"`
	B1    uint64 `dynamodbav:"B1"`
	B2    uint64 `dynamodbav:"B2"`
	B3    uint64 `dynamodbav:"B3"`
}

type bitmaskRepository struct{ s *Store }

func (r *bitmaskRepository) List(ctx context.Context) ([]entities.BitmaskEntry, error) {
	var items []bitmaskItem
	kc := expression.Key("PK").Equal(expression.Value(bitmaskPK))
	if err := r.s.query(ctx, "", kc, nil, &items); err != nil {
		return nil, err
	}

	entries := make([]entities.BitmaskEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, entities.BitmaskEntry{Level: item.Level, B1: item.B1, B2: item.B2, B3: item.B3})
	}
	return entries, nil
}

func (r *bitmaskRepository) SaveAll(ctx context.Context, entries []entities.BitmaskEntry) error {
	requests := make([]types.WriteRequest, 0, len(entries))
	for _, e := range entries {
		av, err := attributevalue.MarshalMap(bitmaskItem{
			PK:    bitmaskPK,
			SK:    fmt.Sprintf("LEVEL#%02d", e.Level),
			Level: e.Level,
			B1:    e.B1,
			B2:    e.B2,
			B3:    e.B3,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal bitmask level %d: %w", e.Level, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	return r.s.batchWrite(ctx, requests)
}

type tripleItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Subject   string `dynamodbav:"Subject"`
	Predicate string `dynamodbav:"Predicate"`
	Object    string `dynamodbav:"Object"`
}

type tripleRepository struct{ s *Store }

func (r *tripleRepository) FindByObject(ctx context.Context, object string) ([]entities.Triple, error) {
	var items []tripleItem
	kc := expression.Key("Object").Equal(expression.Value(object))
	if err := r.s.query(ctx, r.s.indexes.Object, kc, nil, &items); err != nil {
		return nil, err
	}

	triples := make([]entities.Triple, 0, len(items))
	for _, item := range items {
		triples = append(triples, entities.Triple{Subject: item.Subject, Predicate: item.Predicate, Object: item.Object})
	}
	return triples, nil
}

func (r *tripleRepository) Save(ctx context.Context, triple entities.Triple) error {
	return r.s.putItem(ctx, tripleItem{
		PK:        "TRIPLE#" + triple.Subject,
		SK:        triple.Predicate + "#" + triple.Object,
		Subject:   triple.Subject,
		Predicate: triple.Predicate,
		Object:    triple.Object,
	}, "triple "+triple.Subject)
}

type collectionItem struct {
	PK      string `dynamodbav:"PK"`
	SK      string `dynamodbav:"SK"`
	ID      string `dynamodbav:"ID"`
	OwnerID string `dynamodbav:"OwnerID"`
	Title   string `dynamodbav:"Title"`
}

type tourItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	ID           string `dynamodbav:"ID"`
	CollectionID string `dynamodbav:"CollectionID"`
	Title        string `dynamodbav:"Title"`
}

type collectionRepository struct{ s *Store }

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Collection, error) {
	var item collectionItem
	if err := r.s.getItem(ctx, "COLLECTION#"+id.String(), metadataSK, "collection "+id.String(), &item); err != nil {
		return nil, err
	}
	ids, err := parseIDs("collection", item.ID, item.OwnerID)
	if err != nil {
		return nil, err
	}
	return &entities.Collection{ID: ids[0], OwnerID: ids[1], Title: item.Title}, nil
}

func (r *collectionRepository) GetTour(ctx context.Context, id uuid.UUID) (*entities.Tour, error) {
	var item tourItem
	if err := r.s.getItem(ctx, "TOUR#"+id.String(), metadataSK, "tour "+id.String(), &item); err != nil {
		return nil, err
	}
	ids, err := parseIDs("tour", item.ID, item.CollectionID)
	if err != nil {
		return nil, err
	}
	return &entities.Tour{ID: ids[0], CollectionID: ids[1], Title: item.Title}, nil
}

func (r *collectionRepository) Save(ctx context.Context, collection *entities.Collection) error {
	return r.s.putItem(ctx, collectionItem{
		PK:      "COLLECTION#" + collection.ID.String(),
		SK:      metadataSK,
		ID:      collection.ID.String(),
		OwnerID: collection.OwnerID.String(),
		Title:   collection.Title,
	}, "collection "+collection.ID.String())
}

func (r *collectionRepository) SaveTour(ctx context.Context, tour *entities.Tour) error {
	return r.s.putItem(ctx, tourItem{
		PK:           "TOUR#" + tour.ID.String(),
		SK:           metadataSK,
		ID:           tour.ID.String(),
		CollectionID: tour.CollectionID.String(),
		Title:        tour.Title,
	}, "tour "+tour.ID.String())
}
