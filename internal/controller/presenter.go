package controller

import (
	"kidsgpt-be/internal/dto"
	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/service"
	"kidsgpt-be/pkg/chat/projection"
	"kidsgpt-be/pkg/chat/session"
)

func toMessageResponse(m *entity.Message) dto.MessageResponse {
	res := dto.MessageResponse{
		Id:                  m.Id,
		Role:                string(m.Role),
		Content:             m.Content,
		Timestamp:           m.Timestamp,
		HomeworkMisuseScore: m.HomeworkMisuseScore,
		SyncStatus:          string(m.Sync),
	}
	for _, a := range m.Attachments {
		res.Attachments = append(res.Attachments, dto.FileAttachmentDTO{
			Name: a.Name, Url: a.Url, MimeType: a.MimeType, Size: a.Size,
		})
	}
	if img := m.GeneratedImage; img != nil {
		res.GeneratedImage = &dto.GeneratedImageDTO{
			Url:           img.Url,
			Prompt:        img.Prompt,
			RevisedPrompt: img.RevisedPrompt,
			Size:          img.Size,
			Quality:       img.Quality,
			Style:         img.Style,
		}
	}
	return res
}

func toConversationResponse(c *entity.Conversation) dto.ConversationResponse {
	messages := make([]dto.MessageResponse, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = toMessageResponse(m)
	}
	return dto.ConversationResponse{
		Id:         c.Id,
		Title:      c.Title,
		Type:       string(c.Type),
		UserId:     c.UserId,
		FolderId:   c.FolderId,
		Messages:   messages,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		SyncStatus: string(c.Sync),
	}
}

func toFolderResponse(f *entity.Folder) dto.FolderResponse {
	return dto.FolderResponse{
		Id:         f.Id,
		Name:       f.Name,
		CreatedAt:  f.CreatedAt,
		SyncStatus: string(f.Sync),
	}
}

func toNoticeResponse(n session.Notice) dto.NoticeResponse {
	return dto.NoticeResponse{
		Id:        n.Id,
		Kind:      string(n.Kind),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
}

func toSessionStateResponse(s session.Snapshot) dto.SessionStateResponse {
	res := dto.SessionStateResponse{
		State:                 string(s.State),
		Conversations:         make([]dto.ConversationResponse, len(s.Conversations)),
		Folders:               make([]dto.FolderResponse, len(s.Folders)),
		CurrentConversationId: s.CurrentConversationId,
		Notices:               make([]dto.NoticeResponse, len(s.Notices)),
	}
	for i, c := range s.Conversations {
		res.Conversations[i] = toConversationResponse(c)
	}
	for i, f := range s.Folders {
		res.Folders[i] = toFolderResponse(f)
	}
	for i, n := range s.Notices {
		res.Notices[i] = toNoticeResponse(n)
	}
	return res
}

func toSendMessageResponse(r *session.SendResult) dto.SendMessageResponse {
	res := dto.SendMessageResponse{
		UserMessage: toMessageResponse(r.UserMessage),
		Discarded:   r.Discarded,
	}
	if r.Reply != nil {
		reply := toMessageResponse(r.Reply)
		res.Reply = &reply
	}
	if r.Notice != nil {
		notice := toNoticeResponse(*r.Notice)
		res.Notice = &notice
	}
	return res
}

func toParentOverviewResponse(v *projection.ParentView) dto.ParentOverviewResponse {
	res := dto.ParentOverviewResponse{
		Children:      make([]dto.ChildSummaryResponse, len(v.Children)),
		Conversations: make([]dto.TaggedConversationResponse, len(v.Conversations)),
	}
	for i, c := range v.Children {
		res.Children[i] = dto.ChildSummaryResponse{
			Profile:           *service.ToProfileResponse(c.Profile),
			ConversationCount: c.ConversationCount,
			LastInteraction:   c.LastInteraction,
		}
	}
	for i, tc := range v.Conversations {
		res.Conversations[i] = dto.TaggedConversationResponse{
			Conversation: toConversationResponse(tc.Conversation),
			ChildId:      tc.Child.Id,
			ChildName:    tc.Child.DisplayName(),
		}
	}
	return res
}

func toAttachments(in []dto.FileAttachmentDTO) []entity.FileAttachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.FileAttachment, len(in))
	for i, a := range in {
		out[i] = entity.FileAttachment{Name: a.Name, Url: a.Url, MimeType: a.MimeType, Size: a.Size}
	}
	return out
}
