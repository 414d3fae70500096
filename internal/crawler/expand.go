package crawler

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/edtools/canvas-crawler/internal/canvas"
)

// expandStructured enumerates an item's type-specific children by consulting
// the platform API again. List types fan out to their members; a single
// module fans out to its items via the item-type mapping. Fan-out failures
// are logged and yield no children.
func (e *Engine) expandStructured(ctx context.Context, item WorkItem) []WorkItem {
	switch item.ContentType {
	case TypeModules:
		modules, err := e.client.GetModules(ctx, item.CourseID)
		if err != nil {
			e.expansionFailed(item, err)
			return nil
		}
		children := make([]WorkItem, 0, len(modules))
		for _, m := range modules {
			children = append(children, WorkItem{
				ContentType: TypeModule,
				CourseID:    item.CourseID,
				ItemID:      m.ID,
				Depth:       item.Depth + 1,
			})
		}
		return children

	case TypeAssignments:
		assignments, err := e.client.GetAssignments(ctx, item.CourseID)
		if err != nil {
			e.expansionFailed(item, err)
			return nil
		}
		children := make([]WorkItem, 0, len(assignments))
		for _, a := range assignments {
			children = append(children, WorkItem{
				ContentType: TypeAssignment,
				CourseID:    item.CourseID,
				ItemID:      a.ID,
				Depth:       item.Depth + 1,
			})
		}
		return children

	case TypePages:
		pages, err := e.client.ListPages(ctx, item.CourseID)
		if err != nil {
			e.expansionFailed(item, err)
			return nil
		}
		children := make([]WorkItem, 0, len(pages))
		for _, p := range pages {
			children = append(children, WorkItem{
				ContentType: TypePage,
				CourseID:    item.CourseID,
				ItemID:      p.URL,
				Depth:       item.Depth + 1,
			})
		}
		return children

	case TypeAnnouncements:
		announcements, err := e.client.GetAnnouncements(ctx, item.CourseID)
		if err != nil {
			e.expansionFailed(item, err)
			return nil
		}
		children := make([]WorkItem, 0, len(announcements))
		for _, a := range announcements {
			children = append(children, WorkItem{
				ContentType: TypeAnnouncement,
				CourseID:    item.CourseID,
				ItemID:      a.ID,
				Depth:       item.Depth + 1,
			})
		}
		return children

	case TypeModule:
		moduleID, ok := NumericID(item.ItemID)
		if !ok {
			e.logger.Warn("module item id is not numeric", zap.Any("item_id", item.ItemID))
			return nil
		}
		items, err := e.client.GetModuleItems(ctx, item.CourseID, moduleID)
		if err != nil {
			e.expansionFailed(item, err)
			return nil
		}
		children := make([]WorkItem, 0, len(items))
		for _, mi := range items {
			if child, ok := e.mapModuleItem(item, mi); ok {
				children = append(children, child)
			}
		}
		return children

	default:
		return nil
	}
}

func (e *Engine) expansionFailed(item WorkItem, err error) {
	e.logger.Error("structured expansion failed",
		zap.String("content_type", item.ContentType),
		zap.Any("item_id", item.ItemID),
		zap.Error(err),
	)
}

// mapModuleItem translates one module item into a child work item. The bool
// result is false for subheaders and items without a usable target. A
// quiz_lti assignment is a New Quiz: it must be reached through this path
// because the Assignments API cannot render it.
func (e *Engine) mapModuleItem(parent WorkItem, mi canvas.ModuleItem) (WorkItem, bool) {
	child := WorkItem{CourseID: parent.CourseID, Depth: parent.Depth + 1}

	switch strings.ToLower(mi.Type) {
	case "subheader":
		return WorkItem{}, false
	case "page":
		if mi.PageURL == "" {
			e.logger.Warn("page module item has no slug", zap.Int64("module_item_id", mi.ID))
			return WorkItem{}, false
		}
		child.ContentType = TypePage
		child.ItemID = mi.PageURL
	case "assignment":
		if mi.QuizLTI {
			child.ContentType = TypeNewQuiz
		} else {
			child.ContentType = TypeAssignment
		}
		child.ItemID = mi.ContentID
	case "discussion":
		child.ContentType = TypeDiscussion
		child.ItemID = mi.ContentID
	case "quiz":
		child.ContentType = TypeQuiz
		child.ItemID = mi.ContentID
	case "file", "attachment":
		child.ContentType = TypeFile
		child.ItemID = mi.ContentID
	case "externalurl", "externaltool":
		target := mi.ExternalURL
		if target == "" {
			target = mi.URL
		}
		if target == "" {
			e.logger.Warn("module item has no external URL",
				zap.Int64("module_item_id", mi.ID),
				zap.String("title", mi.Title),
			)
			return WorkItem{}, false
		}
		child.ContentType = TypeExternalLink
		child.ItemID = target
	default:
		child.ContentType = strings.ToLower(mi.Type)
		child.ItemID = mi.ID
	}
	return child, true
}
