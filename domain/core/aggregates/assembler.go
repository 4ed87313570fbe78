package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Rik-van-de-Laar/ChronoZoom/domain/core/entities"
	pkgerrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// Assemble turns a flat row set into a forest.
//
// Rows are taken in input order while the budget lasts; the rest are
// counted as rejected. A row becomes a root when it is the common ancestor,
// has no parent, or its parent is not among the accepted rows. Every other
// row is appended to its parent's children. Duplicate ids, self parents and
// depth gaps between a row and a present parent are reported as corrupted
// storage.
func Assemble(rows []*entities.Timeline, commonAncestor *uuid.UUID, budget *Budget) (*Forest, error) {
	forest := NewForest()

	for _, row := range rows {
		if row == nil {
			continue
		}
		if _, dup := forest.timelines[row.ID]; dup {
			return nil, pkgerrors.NewCorruptedStorageError(fmt.Sprintf("timeline %s returned twice", row.ID))
		}
		if row.HasParent(row.ID) {
			return nil, pkgerrors.NewCorruptedStorageError(fmt.Sprintf("timeline %s is its own parent", row.ID))
		}
		if !budget.Consume() {
			forest.rejected++
			continue
		}
		forest.timelines[row.ID] = &TimelineView{Timeline: row}
		forest.order = append(forest.order, row.ID)
	}

	for _, id := range forest.order {
		view := forest.timelines[id]
		row := view.Timeline

		if isRoot(row, commonAncestor) {
			forest.roots = append(forest.roots, id)
			continue
		}
		parent, ok := forest.timelines[*row.ParentID]
		if !ok {
			forest.roots = append(forest.roots, id)
			continue
		}
		if row.Depth != parent.Timeline.Depth+1 {
			return nil, pkgerrors.NewCorruptedStorageError(fmt.Sprintf(
				"timeline %s has depth %d under parent %s at depth %d",
				row.ID, row.Depth, parent.Timeline.ID, parent.Timeline.Depth))
		}
		parent.ChildIDs = append(parent.ChildIDs, id)
	}

	return forest, nil
}

func isRoot(row *entities.Timeline, commonAncestor *uuid.UUID) bool {
	if commonAncestor != nil && row.ID == *commonAncestor {
		return true
	}
	return row.ParentID == nil
}
