package dynamodb

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/valueobjects"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

func exhibitPK(id uuid.UUID) string     { return "EX#" + id.String() }
func contentItemPK(id uuid.UUID) string { return "CI#" + id.String() }

type exhibitItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ParentPK     string `dynamodbav:"ParentPK"`
	ParentSK     string `dynamodbav:"ParentSK"`
	TitlePK      string `dynamodbav:"TitlePK"`
	Title        string `dynamodbav:"Title,omitempty"`
	ID           string `dynamodbav:"ID"`
	TimelineID   string `dynamodbav:"TimelineID"`
	CollectionID string `dynamodbav:"CollectionID"`
	Year         Number `dynamodbav:"Year"`
}

func toExhibitItem(e *entities.Exhibit) exhibitItem {
	return exhibitItem{
		PK:           exhibitPK(e.ID),
		SK:           metadataSK,
		EntityType:   "EXHIBIT",
		ParentPK:     timelinePK(e.TimelineID),
		ParentSK:     exhibitPK(e.ID),
		TitlePK:      titlePK(e.CollectionID, "EX"),
		Title:        e.Title,
		ID:           e.ID.String(),
		TimelineID:   e.TimelineID.String(),
		CollectionID: e.CollectionID.String(),
		Year:         Number{e.Year},
	}
}

func (i exhibitItem) toEntity() (*entities.Exhibit, error) {
	ids, err := parseIDs("exhibit", i.ID, i.TimelineID, i.CollectionID)
	if err != nil {
		return nil, err
	}
	return &entities.Exhibit{
		ID:           ids[0],
		TimelineID:   ids[1],
		CollectionID: ids[2],
		Title:        i.Title,
		Year:         i.Year.Decimal,
	}, nil
}

type contentItemItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	ParentPK     string `dynamodbav:"ParentPK"`
	ParentSK     string `dynamodbav:"ParentSK"`
	TitlePK      string `dynamodbav:"TitlePK"`
	Title        string `dynamodbav:"Title,omitempty"`
	ID           string `dynamodbav:"ID"`
	ExhibitID    string `dynamodbav:"ExhibitID"`
	CollectionID string `dynamodbav:"CollectionID"`
	Order        int    `dynamodbav:"Order"`
	Seq          int64  `dynamodbav:"Seq"`
	URI          string `dynamodbav:"URI,omitempty"`
	MediaType    string `dynamodbav:"MediaType,omitempty"`
}

func toContentItemItem(c *entities.ContentItem) contentItemItem {
	return contentItemItem{
		PK:           contentItemPK(c.ID),
		SK:           metadataSK,
		EntityType:   "CONTENT_ITEM",
		ParentPK:     exhibitPK(c.ExhibitID),
		ParentSK:     contentItemPK(c.ID),
		TitlePK:      titlePK(c.CollectionID, "CI"),
		Title:        c.Title,
		ID:           c.ID.String(),
		ExhibitID:    c.ExhibitID.String(),
		CollectionID: c.CollectionID.String(),
		Order:        c.Order,
		Seq:          c.Seq,
		URI:          c.URI,
		MediaType:    c.MediaType,
	}
}

func (i contentItemItem) toEntity() (*entities.ContentItem, error) {
	ids, err := parseIDs("content item", i.ID, i.ExhibitID, i.CollectionID)
	if err != nil {
		return nil, err
	}
	return &entities.ContentItem{
		ID:           ids[0],
		ExhibitID:    ids[1],
		CollectionID: ids[2],
		Title:        i.Title,
		Order:        i.Order,
		Seq:          i.Seq,
		URI:          i.URI,
		MediaType:    i.MediaType,
	}, nil
}

func parseIDs(kind string, values ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for n, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, pkgerrors.NewCorruptedStorageError(fmt.Sprintf("%s row has malformed id %q", kind, v))
		}
		ids[n] = id
	}
	return ids, nil
}

// Exhibits

type exhibitRepository struct{ s *Store }

func (r *exhibitRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Exhibit, error) {
	var item exhibitItem
	if err := r.s.getItem(ctx, exhibitPK(id), metadataSK, "exhibit "+id.String(), &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *exhibitRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Exhibit, error) {
	kc := expression.Key("TitlePK").Equal(expression.Value(titlePK(collectionID, "EX"))).
		And(expression.Key("Title").Equal(expression.Value(title)))

	var item exhibitItem
	if err := r.s.queryFirst(ctx, r.s.indexes.Title, kc, "exhibit titled "+title, &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *exhibitRepository) ListByTimeline(ctx context.Context, timelineID uuid.UUID) ([]*entities.Exhibit, error) {
	return r.ListByTimelines(ctx, []uuid.UUID{timelineID}, 0)
}

func (r *exhibitRepository) ListByTimelines(ctx context.Context, timelineIDs []uuid.UUID, limit int) ([]*entities.Exhibit, error) {
	if err := valueobjects.ValidateIDs(timelineIDs); err != nil {
		return nil, err
	}

	var out []*entities.Exhibit
	for _, timelineID := range valueobjects.UniqueIDs(timelineIDs) {
		kc := expression.Key("ParentPK").Equal(expression.Value(timelinePK(timelineID))).
			And(expression.Key("ParentSK").BeginsWith("EX#"))

		var items []exhibitItem
		if err := r.s.query(ctx, r.s.indexes.Parent, kc, nil, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			e, err := item.toEntity()
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Year.Cmp(out[j].Year); c != 0 {
			return c < 0
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *exhibitRepository) Save(ctx context.Context, exhibit *entities.Exhibit) error {
	if err := exhibit.Validate(); err != nil {
		return err
	}
	return r.s.putItem(ctx, toExhibitItem(exhibit), "exhibit "+exhibit.ID.String())
}

func (r *exhibitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.deleteItem(ctx, exhibitPK(id), metadataSK, "exhibit "+id.String())
}

// Content items

type contentItemRepository struct{ s *Store }

func (r *contentItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ContentItem, error) {
	var item contentItemItem
	if err := r.s.getItem(ctx, contentItemPK(id), metadataSK, "content item "+id.String(), &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *contentItemRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.ContentItem, error) {
	kc := expression.Key("TitlePK").Equal(expression.Value(titlePK(collectionID, "CI"))).
		And(expression.Key("Title").Equal(expression.Value(title)))

	var item contentItemItem
	if err := r.s.queryFirst(ctx, r.s.indexes.Title, kc, "content item titled "+title, &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *contentItemRepository) ListByExhibit(ctx context.Context, exhibitID uuid.UUID) ([]*entities.ContentItem, error) {
	return r.ListByExhibits(ctx, []uuid.UUID{exhibitID})
}

func (r *contentItemRepository) ListByExhibits(ctx context.Context, exhibitIDs []uuid.UUID) ([]*entities.ContentItem, error) {
	if err := valueobjects.ValidateIDs(exhibitIDs); err != nil {
		return nil, err
	}

	var out []*entities.ContentItem
	for _, exhibitID := range valueobjects.UniqueIDs(exhibitIDs) {
		kc := expression.Key("ParentPK").Equal(expression.Value(exhibitPK(exhibitID))).
			And(expression.Key("ParentSK").BeginsWith("CI#"))

		var items []contentItemItem
		if err := r.s.query(ctx, r.s.indexes.Parent, kc, nil, &items); err != nil {
			return nil, err
		}
		group := make([]*entities.ContentItem, 0, len(items))
		for _, item := range items {
			c, err := item.toEntity()
			if err != nil {
				return nil, err
			}
			group = append(group, c)
		}
		entities.SortContentItems(group)
		out = append(out, group...)
	}
	return out, nil
}

// Save assigns the arrival sequence on first insert and keeps it on update
func (r *contentItemRepository) Save(ctx context.Context, item *entities.ContentItem) error {
	if item.ID == uuid.Nil || item.ExhibitID == uuid.Nil {
		return pkgerrors.NewValidationError("content item requires an id and an exhibit")
	}

	row := toContentItemItem(item)
	var existing contentItemItem
	err := r.s.getItem(ctx, row.PK, metadataSK, "content item "+item.ID.String(), &existing)
	switch {
	case err == nil:
		row.Seq = existing.Seq
	case pkgerrors.IsNotFound(err):
		seq, err := r.s.nextSeq(ctx, "CONTENT_ITEM")
		if err != nil {
			return err
		}
		row.Seq = seq
	default:
		return err
	}

	if err := r.s.putItem(ctx, row, "content item "+item.ID.String()); err != nil {
		return err
	}
	item.Seq = row.Seq
	return nil
}

func (r *contentItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.deleteItem(ctx, contentItemPK(id), metadataSK, "content item "+id.String())
}

// nextSeq atomically increments a named counter item
func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	update := expression.Add(expression.Name("Value"), expression.Value(1))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build counter update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       key("COUNTER", name),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
	}

	num, ok := out.Attributes["Value"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, pkgerrors.NewCorruptedStorageError("counter " + name + " has no numeric value")
	}
	return strconv.ParseInt(num.Value, 10, 64)
}
