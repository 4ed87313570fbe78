package dynamodb

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

const metadataSK = "METADATA"

func timelinePK(id uuid.UUID) string   { return "TL#" + id.String() }
func collectionPK(id uuid.UUID) string { return "COLL#" + id.String() }
func titlePK(collectionID uuid.UUID, kind string) string {
	return fmt.Sprintf("COLL#%s#%s", collectionID, kind)
}

// timelineItem is the stored form of a timeline. The fork node is written
// on every save so the ForkNodeIndex can serve interval queries.
type timelineItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	CollectionPK string `dynamodbav:"CollectionPK"`
	ForkNode     uint64 `dynamodbav:"ForkNode"`
	Depth        int    `dynamodbav:"Depth"`
	ParentPK     string `dynamodbav:"ParentPK,omitempty"`
	ParentSK     string `dynamodbav:"ParentSK,omitempty"`
	TitlePK      string `dynamodbav:"TitlePK"`
	Title        string `dynamodbav:"Title,omitempty"`
	ID           string `dynamodbav:"ID"`
	ParentID     string `dynamodbav:"ParentID,omitempty"`
	CollectionID string `dynamodbav:"CollectionID"`
	FromYear     Number `dynamodbav:"FromYear"`
	ToYear       Number `dynamodbav:"ToYear"`
}

func toTimelineItem(t *entities.Timeline) timelineItem {
	item := timelineItem{
		PK:           timelinePK(t.ID),
		SK:           metadataSK,
		EntityType:   "TIMELINE",
		CollectionPK: collectionPK(t.CollectionID),
		ForkNode:     t.ForkNode(),
		Depth:        t.Depth,
		TitlePK:      titlePK(t.CollectionID, "TL"),
		Title:        t.Title,
		ID:           t.ID.String(),
		CollectionID: t.CollectionID.String(),
		FromYear:     Number{t.FromYear},
		ToYear:       Number{t.ToYear},
	}
	if t.ParentID != nil {
		item.ParentPK = timelinePK(*t.ParentID)
		item.ParentSK = timelinePK(t.ID)
		item.ParentID = t.ParentID.String()
	}
	return item
}

func (i timelineItem) toEntity() (*entities.Timeline, error) {
	id, err := uuid.Parse(i.ID)
	if err != nil {
		return nil, pkgerrors.NewCorruptedStorageError("timeline row has malformed id " + i.ID)
	}
	collectionID, err := uuid.Parse(i.CollectionID)
	if err != nil {
		return nil, pkgerrors.NewCorruptedStorageError("timeline " + i.ID + " has malformed collection id")
	}
	t := &entities.Timeline{
		ID:           id,
		CollectionID: collectionID,
		Title:        i.Title,
		FromYear:     i.FromYear.Decimal,
		ToYear:       i.ToYear.Decimal,
		Depth:        i.Depth,
	}
	if i.ParentID != "" {
		parentID, err := uuid.Parse(i.ParentID)
		if err != nil {
			return nil, pkgerrors.NewCorruptedStorageError("timeline " + i.ID + " has malformed parent id")
		}
		t.ParentID = &parentID
	}
	return t, nil
}

func toTimelines(items []timelineItem) ([]*entities.Timeline, error) {
	out := make([]*entities.Timeline, 0, len(items))
	for _, item := range items {
		t, err := item.toEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// sortTimelines gives scans a stable depth, from year, id ordering
func sortTimelines(ts []*entities.Timeline) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Depth != ts[j].Depth {
			return ts[i].Depth < ts[j].Depth
		}
		if c := ts[i].FromYear.Cmp(ts[j].FromYear); c != 0 {
			return c < 0
		}
		return ts[i].ID.String() < ts[j].ID.String()
	})
}

type timelineRepository struct{ s *Store }

func (r *timelineRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Timeline, error) {
	var item timelineItem
	if err := r.s.getItem(ctx, timelinePK(id), metadataSK, "timeline "+id.String(), &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *timelineRepository) GetByTitle(ctx context.Context, collectionID uuid.UUID, title string) (*entities.Timeline, error) {
	kc := expression.Key("TitlePK").Equal(expression.Value(titlePK(collectionID, "TL"))).
		And(expression.Key("Title").Equal(expression.Value(title)))

	var item timelineItem
	if err := r.s.queryFirst(ctx, r.s.indexes.Title, kc, "timeline titled "+title, &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *timelineRepository) GetRoot(ctx context.Context, collectionID uuid.UUID) (*entities.Timeline, error) {
	kc := expression.Key("CollectionPK").Equal(expression.Value(collectionPK(collectionID))).
		And(expression.Key("Depth").Equal(expression.Value(0)))

	var item timelineItem
	if err := r.s.queryFirst(ctx, r.s.indexes.Depth, kc, "root timeline of collection "+collectionID.String(), &item); err != nil {
		return nil, err
	}
	return item.toEntity()
}

func (r *timelineRepository) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*entities.Timeline, error) {
	kc := expression.Key("ParentPK").Equal(expression.Value(timelinePK(parentID))).
		And(expression.Key("ParentSK").BeginsWith("TL#"))
	return r.find(ctx, r.s.indexes.Parent, kc, nil)
}

func (r *timelineRepository) FindInWindow(ctx context.Context, filter ports.TimelineFilter) ([]*entities.Timeline, error) {
	partition := expression.Key("CollectionPK").Equal(expression.Value(collectionPK(filter.CollectionID)))

	var kc expression.KeyConditionBuilder
	if filter.MaxDepth >= 0 {
		kc = partition.And(expression.Key("Depth").Between(expression.Value(filter.MinDepth), expression.Value(filter.MaxDepth)))
	} else {
		kc = partition.And(expression.Key("Depth").GreaterThanEqual(expression.Value(filter.MinDepth)))
	}

	overlap := expression.Name("ToYear").GreaterThanEqual(expression.Value(Number{filter.Window.From})).
		And(expression.Name("FromYear").LessThanEqual(expression.Value(Number{filter.Window.To})))

	return r.find(ctx, r.s.indexes.Depth, kc, &overlap)
}

func (r *timelineRepository) FindByForkNodes(ctx context.Context, collectionID uuid.UUID, nodes []uint64) ([]*entities.Timeline, error) {
	seen := make(map[uint64]struct{}, len(nodes))
	var out []*entities.Timeline

	for _, node := range nodes {
		if _, ok := seen[node]; ok {
			continue
		}
		seen[node] = struct{}{}

		kc := expression.Key("CollectionPK").Equal(expression.Value(collectionPK(collectionID))).
			And(expression.Key("ForkNode").Equal(expression.Value(node)))
		rows, err := r.find(ctx, r.s.indexes.ForkNode, kc, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}

	r.s.logger.Debug("Fork node lookup complete",
		zap.String("collectionID", collectionID.String()),
		zap.Int("nodes", len(seen)),
		zap.Int("rows", len(out)))

	sortTimelines(out)
	return out, nil
}

func (r *timelineRepository) FindByForkRange(ctx context.Context, collectionID uuid.UUID, from, to uint64) ([]*entities.Timeline, error) {
	kc := expression.Key("CollectionPK").Equal(expression.Value(collectionPK(collectionID))).
		And(expression.Key("ForkNode").Between(expression.Value(from), expression.Value(to)))
	return r.find(ctx, r.s.indexes.ForkNode, kc, nil)
}

func (r *timelineRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]*entities.Timeline, error) {
	kc := expression.Key("CollectionPK").Equal(expression.Value(collectionPK(collectionID)))
	return r.find(ctx, r.s.indexes.Depth, kc, nil)
}

func (r *timelineRepository) Save(ctx context.Context, timeline *entities.Timeline) error {
	if err := timeline.Validate(); err != nil {
		return err
	}
	return r.s.putItem(ctx, toTimelineItem(timeline), "timeline "+timeline.ID.String())
}

func (r *timelineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.deleteItem(ctx, timelinePK(id), metadataSK, "timeline "+id.String())
}

func (r *timelineRepository) find(ctx context.Context, index string, kc expression.KeyConditionBuilder, filter *expression.ConditionBuilder) ([]*entities.Timeline, error) {
	var items []timelineItem
	if err := r.s.query(ctx, index, kc, filter, &items); err != nil {
		return nil, err
	}
	rows, err := toTimelines(items)
	if err != nil {
		return nil, err
	}
	sortTimelines(rows)
	return rows, nil
}
