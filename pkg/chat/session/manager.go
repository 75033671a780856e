package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	titleMaxRunes = 50
	maxNotices    = 20
)

type Option func(*Manager)

func WithKeyResolver(k KeyResolver) Option {
	return func(m *Manager) { m.keys = k }
}

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithScoreReporter(r ScoreReporter) Option {
	return func(m *Manager) { m.reporter = r }
}

func WithLogger(l logger.ILogger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager is the in-memory state of one signed-in tab: the user's
// conversations and folders plus the active selection. Mutations are applied
// locally first and reconciled with the Store in the background; failed
// writes stay visible, marked entity.SyncFailed, and raise a notice.
type Manager struct {
	mu sync.Mutex

	store     Store
	completer Completer
	keys      KeyResolver
	notifier  Notifier
	reporter  ScoreReporter
	logger    logger.ILogger

	state         State
	identity      *Identity
	conversations []*entity.Conversation
	folders       []*entity.Folder
	currentId     *uuid.UUID
	notices       []Notice

	// epoch changes on every Init and Teardown; generations maps each live
	// conversation to the token handed out when it entered local state.
	epoch       uint64
	generations map[uuid.UUID]uint64
	nextGen     uint64

	pending sync.WaitGroup
}

var _ Actions = (*Manager)(nil)

func NewManager(store Store, completer Completer, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		completer:   completer,
		logger:      logger.NewNopLogger(),
		state:       StateUnauthenticated,
		generations: map[uuid.UUID]uint64{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// token binds async work to the state it was started against.
type token struct {
	epoch uint64
	gen   uint64
}

func (m *Manager) liveLocked(conversationId uuid.UUID, t token) bool {
	return m.epoch == t.epoch && m.generations[conversationId] == t.gen
}

func (m *Manager) track(id uuid.UUID) {
	m.nextGen++
	m.generations[id] = m.nextGen
}

// Init loads the identity's records. Switching identity discards everything
// held for the previous one. A failed load leaves empty lists and a notice.
func (m *Manager) Init(ctx context.Context, identity Identity) error {
	if identity.UserId == uuid.Nil {
		m.Teardown()
		return ErrNoIdentity
	}

	m.mu.Lock()
	m.resetLocked()
	id := identity
	m.identity = &id
	m.state = StateLoading
	epoch := m.epoch
	m.mu.Unlock()

	var conversations []*entity.Conversation
	var folders []*entity.Folder
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		conversations, err = m.store.LoadConversations(gctx, identity.UserId)
		return err
	})
	g.Go(func() (err error) {
		folders, err = m.store.LoadFolders(gctx, identity.UserId)
		return err
	})
	loadErr := g.Wait()

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return ErrSessionClosed
	}
	var notice *Notice
	if loadErr != nil {
		conversations, folders = nil, nil
		notice = m.noticeLocked(NoticeError, "We couldn't load your chats. Please refresh to try again.")
	}
	m.conversations = make([]*entity.Conversation, 0, len(conversations))
	for _, c := range conversations {
		m.conversations = append(m.conversations, c.Clone())
		m.track(c.Id)
	}
	m.folders = make([]*entity.Folder, 0, len(folders))
	for _, f := range folders {
		m.folders = append(m.folders, f.Clone())
	}
	m.state = StateReady
	m.mu.Unlock()

	m.publish(identity.UserId, notice)
	if loadErr != nil {
		m.logger.Error("SESSION", "Initial load failed", map[string]interface{}{
			"user_id": identity.UserId.String(),
			"error":   loadErr.Error(),
		})
	}
	return loadErr
}

// Teardown clears all local records and returns to unauthenticated. Work
// still in flight is discarded when it completes.
func (m *Manager) Teardown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Manager) resetLocked() {
	m.epoch++
	m.state = StateUnauthenticated
	m.identity = nil
	m.conversations = nil
	m.folders = nil
	m.currentId = nil
	m.notices = nil
	m.generations = map[uuid.UUID]uint64{}
}

// Wait blocks until background persistence started so far has finished.
func (m *Manager) Wait() {
	m.pending.Wait()
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) Identity() *Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil
	}
	id := *m.identity
	return &id
}

// SetAge refreshes the cached age after a parent changes it.
func (m *Manager) SetAge(age *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity != nil {
		m.identity.Age = age
	}
}

// CreateNewConversation persists first and only then makes the conversation
// active. Without an identity it returns nil and raises a notice.
func (m *Manager) CreateNewConversation(ctx context.Context, folderId *uuid.UUID, convType entity.ConversationType) (*entity.Conversation, error) {
	m.mu.Lock()
	if m.identity == nil {
		n := m.noticeLocked(NoticeError, "Please sign in to start a new chat.")
		m.mu.Unlock()
		m.publish(uuid.Nil, n)
		return nil, ErrNoIdentity
	}
	owner, epoch := m.identity.UserId, m.epoch
	m.mu.Unlock()

	conversation, err := m.store.CreateConversation(ctx, owner, folderId, convType)
	if err != nil {
		m.raise(owner, epoch, NoticeError, "We couldn't start a new chat. Please try again.")
		m.logger.Error("SESSION", "Create conversation failed", map[string]interface{}{"user_id": owner.String(), "error": err.Error()})
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return nil, ErrSessionClosed
	}
	local := conversation.Clone()
	local.Sync = entity.SyncCommitted
	m.conversations = append([]*entity.Conversation{local}, m.conversations...)
	m.track(local.Id)
	id := local.Id
	m.currentId = &id
	return local.Clone(), nil
}

// AddMessageToConversation appends locally and persists in the background.
// The returned copy is marked pending.
func (m *Manager) AddMessageToConversation(ctx context.Context, conversationId uuid.UUID, message *entity.Message) (*entity.Message, error) {
	added, _, err := m.appendMessage(ctx, conversationId, message, nil)
	return added, err
}

type appended struct {
	owner   uuid.UUID
	token   token
	convTyp entity.ConversationType
	history []*entity.Message
	saved   <-chan bool
}

// appendMessage adds message locally and starts persisting it. When want is
// set the append only happens if the conversation still holds that token.
func (m *Manager) appendMessage(ctx context.Context, conversationId uuid.UUID, message *entity.Message, want *token) (*entity.Message, *appended, error) {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return nil, nil, ErrNoIdentity
	}
	if want != nil && !m.liveLocked(conversationId, *want) {
		m.mu.Unlock()
		return nil, nil, ErrSessionClosed
	}
	conv := m.findLocked(conversationId)
	if conv == nil {
		m.mu.Unlock()
		return nil, nil, ErrUnknownConversation
	}

	msg := message.Clone()
	if msg.Id == uuid.Nil {
		msg.Id = uuid.New()
	}
	msg.ConversationId = conversationId
	msg.Timestamp = nextTimestamp(conv, msg.Timestamp)
	msg.Sync = entity.SyncPending

	var newTitle string
	if msg.Role == entity.MessageRoleUser && !hasUserMessage(conv) {
		if t := TitleFrom(msg.Content); t != "" {
			conv.Title = t
			newTitle = t
		}
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp
	m.bringToFrontLocked(conversationId)

	info := &appended{
		owner:   m.identity.UserId,
		token:   token{epoch: m.epoch, gen: m.generations[conversationId]},
		convTyp: conv.Type,
		history: cloneMessages(conv.Messages),
	}
	out := msg.Clone()
	m.mu.Unlock()

	info.saved = m.persistMessage(ctx, info.owner, info.token, out.Clone(), newTitle)
	return out, info, nil
}

func (m *Manager) persistMessage(ctx context.Context, owner uuid.UUID, t token, msg *entity.Message, newTitle string) <-chan bool {
	saved := make(chan bool, 1)
	bg := context.WithoutCancel(ctx)
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		err := m.store.SaveMessage(bg, owner, msg.ConversationId, msg)
		if err == nil && newTitle != "" {
			err = m.store.UpdateTitle(bg, owner, msg.ConversationId, newTitle)
		}
		saved <- err == nil
		close(saved)

		m.settleMessage(owner, t, msg.ConversationId, msg.Id, err)
	}()
	return saved
}

func (m *Manager) settleMessage(owner uuid.UUID, t token, conversationId, messageId uuid.UUID, err error) {
	m.mu.Lock()
	if !m.liveLocked(conversationId, t) {
		m.mu.Unlock()
		return
	}
	status := entity.SyncCommitted
	if err != nil {
		status = entity.SyncFailed
	}
	if conv := m.findLocked(conversationId); conv != nil {
		for _, msg := range conv.Messages {
			if msg.Id == messageId {
				msg.Sync = status
			}
		}
	}
	var n *Notice
	if err != nil {
		n = m.noticeLocked(NoticeError, "A message couldn't be saved. It is still shown here but may be missing after a reload.")
	}
	m.mu.Unlock()

	if err != nil {
		m.publish(owner, n)
		m.logger.Warn("SESSION", "Message persistence failed", map[string]interface{}{
			"conversation_id": conversationId.String(),
			"message_id":      messageId.String(),
			"error":           err.Error(),
		})
	}
}

// SendMessage appends the user's message, asks the completer for a reply
// and appends it. A reply whose conversation was deleted, or whose session
// ended, while the request was in flight is dropped.
func (m *Manager) SendMessage(ctx context.Context, in SendInput) (*SendResult, error) {
	userMsg, info, err := m.appendMessage(ctx, in.ConversationId, &entity.Message{
		Role:        entity.MessageRoleUser,
		Content:     in.Content,
		Attachments: in.Attachments,
	}, nil)
	if err != nil {
		return nil, err
	}
	result := &SendResult{UserMessage: userMsg}

	apiKey := m.resolveKey(ctx, info.owner, in.PersonalKey)
	age := m.age()

	reply := m.completer.Reply(ctx, completionRequest(info, age, apiKey))

	if reply.Err != nil && isMissingKey(reply.Err) {
		result.Notice = m.raise(info.owner, info.token.epoch, NoticeConfiguration, reply.Text)
		return result, nil
	}

	assistant, replyInfo, err := m.appendMessage(ctx, in.ConversationId, &entity.Message{
		Role:    entity.MessageRoleAssistant,
		Content: reply.Text,
	}, &info.token)
	if err != nil {
		m.logger.Info("SESSION", "Discarded stale reply", map[string]interface{}{"conversation_id": in.ConversationId.String()})
		result.Discarded = true
		return result, nil
	}
	result.Reply = assistant

	if reply.Err != nil || info.convTyp != entity.ConversationTypeRegular {
		return result, nil
	}

	score, err := m.completer.Score(ctx, userMsg.Content, reply.Text, apiKey)
	if err != nil {
		return result, nil
	}
	if !m.setScore(in.ConversationId, assistant.Id, info.token, score) {
		result.Discarded = true
		return result, nil
	}
	assistant.HomeworkMisuseScore = &score
	m.persistScore(ctx, info.owner, replyInfo, in.ConversationId, assistant.Id, userMsg.Content, score)
	return result, nil
}

func (m *Manager) setScore(conversationId, messageId uuid.UUID, t token, score int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.liveLocked(conversationId, t) {
		return false
	}
	conv := m.findLocked(conversationId)
	for _, msg := range conv.Messages {
		if msg.Id == messageId {
			s := score
			msg.HomeworkMisuseScore = &s
			return true
		}
	}
	return false
}

// persistScore writes the score once the message row exists and reports it.
func (m *Manager) persistScore(ctx context.Context, owner uuid.UUID, info *appended, conversationId, messageId uuid.UUID, question string, score int) {
	bg := context.WithoutCancel(ctx)
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		if ok := <-info.saved; !ok {
			return
		}
		if err := m.store.UpdateMessageScore(bg, owner, messageId, score); err != nil {
			m.logger.Warn("SESSION", "Score persistence failed", map[string]interface{}{
				"message_id": messageId.String(),
				"error":      err.Error(),
			})
			return
		}
		if m.reporter != nil {
			m.reporter.ReportScore(bg, ScoredReply{
				UserId:         owner,
				ConversationId: conversationId,
				MessageId:      messageId,
				Question:       question,
				Score:          score,
				ScoredAt:       time.Now(),
			})
		}
	}()
}

// SelectConversation sets the active conversation; nil clears it.
func (m *Manager) SelectConversation(conversationId *uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if conversationId == nil {
		m.currentId = nil
		return nil
	}
	if m.findLocked(*conversationId) == nil {
		return ErrUnknownConversation
	}
	id := *conversationId
	m.currentId = &id
	return nil
}

// DeleteConversation removes the conversation locally only after the store
// confirms the delete.
func (m *Manager) DeleteConversation(ctx context.Context, conversationId uuid.UUID) error {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	if m.findLocked(conversationId) == nil {
		m.mu.Unlock()
		return ErrUnknownConversation
	}
	owner, epoch := m.identity.UserId, m.epoch
	m.mu.Unlock()

	if err := m.store.DeleteConversation(ctx, owner, conversationId); err != nil {
		m.raise(owner, epoch, NoticeError, "We couldn't delete that chat. Please try again.")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return nil
	}
	m.removeConversationLocked(conversationId)
	return nil
}

func (m *Manager) MoveConversation(ctx context.Context, conversationId uuid.UUID, folderId *uuid.UUID) error {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	conv := m.findLocked(conversationId)
	if conv == nil {
		m.mu.Unlock()
		return ErrUnknownConversation
	}
	if folderId != nil && m.findFolderLocked(*folderId) == nil {
		m.mu.Unlock()
		return ErrUnknownFolder
	}
	if folderId != nil {
		f := *folderId
		conv.FolderId = &f
	} else {
		conv.FolderId = nil
	}
	conv.Sync = entity.SyncPending
	owner, t := m.identity.UserId, token{epoch: m.epoch, gen: m.generations[conversationId]}
	m.mu.Unlock()

	m.background(ctx, func(bg context.Context) {
		err := m.store.MoveConversation(bg, owner, conversationId, folderId)
		m.mu.Lock()
		if !m.liveLocked(conversationId, t) {
			m.mu.Unlock()
			return
		}
		var n *Notice
		if c := m.findLocked(conversationId); c != nil {
			c.Sync = syncFor(err)
		}
		if err != nil {
			n = m.noticeLocked(NoticeError, "We couldn't move that chat. Please try again.")
		}
		m.mu.Unlock()
		m.publish(owner, n)
	})
	return nil
}

func (m *Manager) CreateFolder(ctx context.Context, name string) (*entity.Folder, error) {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return nil, ErrNoIdentity
	}
	owner, epoch := m.identity.UserId, m.epoch
	m.mu.Unlock()

	folder, err := m.store.CreateFolder(ctx, owner, name)
	if err != nil {
		m.raise(owner, epoch, NoticeError, "We couldn't create that folder. Please try again.")
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		return nil, ErrSessionClosed
	}
	local := folder.Clone()
	local.Sync = entity.SyncCommitted
	m.folders = append(m.folders, local)
	return local.Clone(), nil
}

// RenameFolder renames locally at once. A failed write keeps the new name
// and marks the folder failed.
func (m *Manager) RenameFolder(ctx context.Context, folderId uuid.UUID, name string) error {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	folder := m.findFolderLocked(folderId)
	if folder == nil {
		m.mu.Unlock()
		return ErrUnknownFolder
	}
	folder.Name = name
	folder.Sync = entity.SyncPending
	owner, epoch := m.identity.UserId, m.epoch
	m.mu.Unlock()

	m.background(ctx, func(bg context.Context) {
		_, err := m.store.RenameFolder(bg, owner, folderId, name)
		m.mu.Lock()
		if m.epoch != epoch {
			m.mu.Unlock()
			return
		}
		var n *Notice
		if f := m.findFolderLocked(folderId); f != nil {
			f.Sync = syncFor(err)
		}
		if err != nil {
			n = m.noticeLocked(NoticeError, "We couldn't rename that folder. Please try again.")
		}
		m.mu.Unlock()
		m.publish(owner, n)
	})
	return nil
}

// DeleteFolder drops the folder and unlinks its conversations locally, then
// persists in the background.
func (m *Manager) DeleteFolder(ctx context.Context, folderId uuid.UUID) error {
	m.mu.Lock()
	if m.identity == nil {
		m.mu.Unlock()
		return ErrNoIdentity
	}
	if m.findFolderLocked(folderId) == nil {
		m.mu.Unlock()
		return ErrUnknownFolder
	}
	for i, f := range m.folders {
		if f.Id == folderId {
			m.folders = append(m.folders[:i], m.folders[i+1:]...)
			break
		}
	}
	for _, c := range m.conversations {
		if c.FolderId != nil && *c.FolderId == folderId {
			c.FolderId = nil
		}
	}
	owner, epoch := m.identity.UserId, m.epoch
	m.mu.Unlock()

	m.background(ctx, func(bg context.Context) {
		if err := m.store.DeleteFolder(bg, owner, folderId); err != nil {
			m.raise(owner, epoch, NoticeError, "We couldn't delete that folder. It may come back after a reload.")
		}
	})
	return nil
}

// CurrentConversation returns a copy of the active conversation, or nil.
func (m *Manager) CurrentConversation() *entity.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentId == nil {
		return nil
	}
	return m.findLocked(*m.currentId).Clone()
}

func (m *Manager) Conversation(conversationId uuid.UUID) *entity.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findLocked(conversationId).Clone()
}

func (m *Manager) Conversations() []*entity.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationsLocked()
}

func (m *Manager) Folders() []*entity.Folder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foldersLocked()
}

func (m *Manager) Notices() []Notice {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notice(nil), m.notices...)
}

func (m *Manager) DismissNotice(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notices {
		if n.Id == id {
			m.notices = append(m.notices[:i], m.notices[i+1:]...)
			return
		}
	}
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		State:         m.state,
		Conversations: m.conversationsLocked(),
		Folders:       m.foldersLocked(),
		Notices:       append([]Notice(nil), m.notices...),
	}
	if m.identity != nil {
		id := *m.identity
		snap.Identity = &id
	}
	if m.currentId != nil {
		cur := *m.currentId
		snap.CurrentConversationId = &cur
	}
	return snap
}

// helpers

func (m *Manager) background(ctx context.Context, fn func(bg context.Context)) {
	bg := context.WithoutCancel(ctx)
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		fn(bg)
	}()
}

func (m *Manager) conversationsLocked() []*entity.Conversation {
	out := make([]*entity.Conversation, len(m.conversations))
	for i, c := range m.conversations {
		out[i] = c.Clone()
	}
	return out
}

func (m *Manager) foldersLocked() []*entity.Folder {
	out := make([]*entity.Folder, len(m.folders))
	for i, f := range m.folders {
		out[i] = f.Clone()
	}
	return out
}

func (m *Manager) findLocked(id uuid.UUID) *entity.Conversation {
	for _, c := range m.conversations {
		if c.Id == id {
			return c
		}
	}
	return nil
}

func (m *Manager) findFolderLocked(id uuid.UUID) *entity.Folder {
	for _, f := range m.folders {
		if f.Id == id {
			return f
		}
	}
	return nil
}

func (m *Manager) bringToFrontLocked(id uuid.UUID) {
	for i, c := range m.conversations {
		if c.Id == id {
			copy(m.conversations[1:i+1], m.conversations[:i])
			m.conversations[0] = c
			return
		}
	}
}

func (m *Manager) removeConversationLocked(id uuid.UUID) {
	for i, c := range m.conversations {
		if c.Id == id {
			m.conversations = append(m.conversations[:i], m.conversations[i+1:]...)
			break
		}
	}
	delete(m.generations, id)
	if m.currentId != nil && *m.currentId == id {
		m.currentId = nil
	}
}

func (m *Manager) noticeLocked(kind NoticeKind, message string) *Notice {
	n := Notice{Id: uuid.New(), Kind: kind, Message: message, CreatedAt: time.Now()}
	m.notices = append(m.notices, n)
	if len(m.notices) > maxNotices {
		m.notices = m.notices[len(m.notices)-maxNotices:]
	}
	return &n
}

// raise records a notice if the session is still on the given epoch.
func (m *Manager) raise(owner uuid.UUID, epoch uint64, kind NoticeKind, message string) *Notice {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil
	}
	n := m.noticeLocked(kind, message)
	m.mu.Unlock()
	m.publish(owner, n)
	return n
}

func (m *Manager) publish(owner uuid.UUID, n *Notice) {
	if n == nil || m.notifier == nil || owner == uuid.Nil {
		return
	}
	m.notifier.Notify(owner, *n)
}

func (m *Manager) resolveKey(ctx context.Context, owner uuid.UUID, personal string) string {
	if m.keys == nil {
		return personal
	}
	key, err := m.keys.ResolveAPIKey(ctx, owner, personal)
	if err != nil {
		m.logger.Warn("SESSION", "API key lookup failed", map[string]interface{}{"error": err.Error()})
		return personal
	}
	return key
}

func (m *Manager) age() *int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil || m.identity.Age == nil {
		return nil
	}
	a := *m.identity.Age
	return &a
}

func syncFor(err error) entity.SyncStatus {
	if err != nil {
		return entity.SyncFailed
	}
	return entity.SyncCommitted
}

func hasUserMessage(c *entity.Conversation) bool {
	for _, msg := range c.Messages {
		if msg.Role == entity.MessageRoleUser {
			return true
		}
	}
	return false
}

// nextTimestamp returns a UTC timestamp at microsecond precision, the
// finest the record store keeps, strictly after the conversation's last
// message so a reload orders messages the way they were appended.
func nextTimestamp(c *entity.Conversation, ts time.Time) time.Time {
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC().Truncate(time.Microsecond)
	if n := len(c.Messages); n > 0 {
		if floor := c.Messages[n-1].Timestamp.UTC().Truncate(time.Microsecond).Add(time.Microsecond); ts.Before(floor) {
			return floor
		}
	}
	return ts
}

func cloneMessages(in []*entity.Message) []*entity.Message {
	out := make([]*entity.Message, len(in))
	for i, msg := range in {
		out[i] = msg.Clone()
	}
	return out
}

// TitleFrom derives a conversation title from the first user message.
func TitleFrom(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) == 0 {
		return ""
	}
	if len(runes) > titleMaxRunes {
		return fmt.Sprintf("%s...", string(runes[:titleMaxRunes]))
	}
	return string(runes)
}
