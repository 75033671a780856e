// Package projection builds the parent's read-only view over their
// children's conversations.
package projection

import (
	"context"
	"time"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/service"

	"github.com/google/uuid"
)

// Source is the record store query the projection is derived from.
type Source interface {
	LoadChildrenConversations(ctx context.Context, parentId uuid.UUID) (*service.ChildConversations, error)
}

type TaggedConversation struct {
	Conversation *entity.Conversation
	Child        *entity.Profile
}

type ChildSummary struct {
	Profile           *entity.Profile
	ConversationCount int
	// LastInteraction is the newest message timestamp across the child's
	// conversations, nil when the child has no messages.
	LastInteraction *time.Time
}

type ParentView struct {
	Conversations []TaggedConversation
	Children      []ChildSummary
}

type Projector struct {
	source Source
}

func NewProjector(source Source) *Projector {
	return &Projector{source: source}
}

// Project re-reads the store and derives the summaries. A caller that is not
// a parent gets an empty view.
func (p *Projector) Project(ctx context.Context, parentId uuid.UUID) (*ParentView, error) {
	loaded, err := p.source.LoadChildrenConversations(ctx, parentId)
	if err != nil {
		return nil, err
	}
	return Build(loaded), nil
}

// Build tags each conversation with its owner and computes per-child
// summaries. Conversations owned by someone outside the child list are
// dropped.
func Build(loaded *service.ChildConversations) *ParentView {
	view := &ParentView{
		Conversations: []TaggedConversation{},
		Children:      []ChildSummary{},
	}
	if loaded == nil {
		return view
	}

	byId := make(map[uuid.UUID]int, len(loaded.Children))
	for _, child := range loaded.Children {
		byId[child.Id] = len(view.Children)
		view.Children = append(view.Children, ChildSummary{Profile: child})
	}

	for _, conv := range loaded.Conversations {
		idx, ok := byId[conv.UserId]
		if !ok {
			continue
		}
		summary := &view.Children[idx]
		summary.ConversationCount++
		if last := conv.LastMessageAt(); last != nil {
			if summary.LastInteraction == nil || last.After(*summary.LastInteraction) {
				summary.LastInteraction = last
			}
		}
		view.Conversations = append(view.Conversations, TaggedConversation{
			Conversation: conv.Clone(),
			Child:        summary.Profile,
		})
	}
	return view
}

// ConversationsOf filters the view to one child.
func (v *ParentView) ConversationsOf(childId uuid.UUID) []*entity.Conversation {
	var out []*entity.Conversation
	for _, tc := range v.Conversations {
		if tc.Child.Id == childId {
			out = append(out, tc.Conversation)
		}
	}
	return out
}
