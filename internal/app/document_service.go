package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"docqa/internal/docstore"
	"docqa/internal/model"
	"docqa/internal/pipeline"
	"docqa/internal/pkg/textextract"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoDocument      = errors.New("session has no document")
	ErrEmptyQuestion   = errors.New("question is empty")
	// ErrDocumentChanged means another upload replaced the document while the
	// request was running.
	ErrDocumentChanged = errors.New("document changed during request")
)

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	ListByUserID(ctx context.Context, userID uint) ([]model.Session, error)
	GetByIDAndUserID(ctx context.Context, sessionID, userID uint) (*model.Session, error)
	DeleteByIDAndUserID(ctx context.Context, sessionID, userID uint) error
	Touch(ctx context.Context, sessionID uint) error
}

type DocumentStore interface {
	Replace(ctx context.Context, doc *model.Document) error
	GetBySessionID(ctx context.Context, sessionID uint) (*model.Document, error)
	UpdateSummary(ctx context.Context, id uint, summary string) error
	DeleteBySessionID(ctx context.Context, sessionID uint) error
}

type QARecordLister interface {
	ListBySessionID(ctx context.Context, sessionID uint, limit int) ([]model.QARecord, error)
}

type QARecordPublisher interface {
	Publish(ctx context.Context, record model.QARecord) error
}

// IndexStore holds the Ready index of each session.
type IndexStore interface {
	Load(ctx context.Context, sessionID uint, rawText string) (*pipeline.Index, error)
	Get(sessionID uint) (*pipeline.Index, bool)
	Hash(sessionID uint) (string, bool)
	Drop(sessionID uint)
}

type DocumentPipeline interface {
	Prepare(rawText string) (*pipeline.Index, error)
	Ask(ctx context.Context, idx *pipeline.Index, question string) (pipeline.Answer, error)
	Summarize(ctx context.Context, idx *pipeline.Index) (pipeline.Summary, error)
}

type DocumentService struct {
	sessions  SessionStore
	documents DocumentStore
	records   QARecordLister
	publisher QARecordPublisher
	indexes   IndexStore
	pipeline  DocumentPipeline
	logger    *slog.Logger
}

func NewDocumentService(
	sessions SessionStore,
	documents DocumentStore,
	records QARecordLister,
	publisher QARecordPublisher,
	indexes IndexStore,
	pipe DocumentPipeline,
	logger *slog.Logger,
) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		sessions:  sessions,
		documents: documents,
		records:   records,
		publisher: publisher,
		indexes:   indexes,
		pipeline:  pipe,
		logger:    logger,
	}
}

type CreateSessionInput struct {
	UserID uint
	Title  string
}

type UploadInput struct {
	UserID    uint
	SessionID uint
	Name      string
	Filename  string
	Content   io.Reader
}

// DocumentView is a stored document together with its in-memory index state.
type DocumentView struct {
	model.Document
	State string `json:"state"`
}

type AskInput struct {
	UserID    uint
	SessionID uint
	Question  string
}

type AskResult struct {
	Answer        string  `json:"answer"`
	Context       string  `json:"context"`
	ContextIndex  int     `json:"context_index"`
	Score         float64 `json:"score"`
	LowConfidence bool    `json:"low_confidence"`
}

type SummaryResult struct {
	Summary string   `json:"summary"`
	Parts   []string `json:"parts,omitempty"`
}

func (s *DocumentService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.Session, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "New Document"
	}

	session := &model.Session{
		UserID: input.UserID,
		Title:  title,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *DocumentService) ListSessions(ctx context.Context, userID uint) ([]model.Session, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.sessions.ListByUserID(ctx, userID)
}

func (s *DocumentService) DeleteSession(ctx context.Context, userID, sessionID uint) error {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return err
	}
	if err := s.sessions.DeleteByIDAndUserID(ctx, sessionID, userID); err != nil {
		return err
	}
	s.indexes.Drop(sessionID)
	return nil
}

// Upload extracts, chunks and indexes a document as the session's only
// document. The previous document is discarded before any work starts, so a
// failed upload leaves the session empty.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*DocumentView, error) {
	if input.Content == nil {
		return nil, ErrInvalidInput
	}
	if _, err := s.session(ctx, input.UserID, input.SessionID); err != nil {
		return nil, err
	}

	s.indexes.Drop(input.SessionID)
	doc, err := s.store(ctx, input)
	if err != nil {
		if cleanupErr := s.documents.DeleteBySessionID(ctx, input.SessionID); cleanupErr != nil {
			s.logger.Warn("discard previous document failed", "session_id", input.SessionID, "error", cleanupErr)
		}
		return nil, err
	}

	idx, err := s.indexes.Load(ctx, input.SessionID, doc.RawText)
	if err != nil {
		if errors.Is(err, docstore.ErrSuperseded) {
			return nil, ErrDocumentChanged
		}
		if cleanupErr := s.documents.DeleteBySessionID(ctx, input.SessionID); cleanupErr != nil {
			s.logger.Warn("discard unindexed document failed", "session_id", input.SessionID, "error", cleanupErr)
		}
		return nil, err
	}

	s.touch(ctx, input.SessionID)
	s.logger.Info("document indexed",
		"session_id", input.SessionID,
		"name", doc.Name,
		"chunks", doc.ChunkCount,
		"summary_chunks", doc.SummaryChunkCount,
	)
	return &DocumentView{Document: *doc, State: idx.State.String()}, nil
}

func (s *DocumentService) store(ctx context.Context, input UploadInput) (*model.Document, error) {
	raw, err := textextract.Extract(input.Filename, input.Content)
	if err != nil {
		return nil, err
	}
	prepared, err := s.pipeline.Prepare(raw)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = filepath.Base(input.Filename)
	}
	doc := &model.Document{
		SessionID:         input.SessionID,
		UserID:            input.UserID,
		Name:              name,
		ContentHash:       prepared.Hash,
		RawText:           raw,
		ChunkCount:        len(prepared.Chunks),
		SummaryChunkCount: len(prepared.SummaryChunks),
	}
	if err := s.documents.Replace(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Document(ctx context.Context, userID, sessionID uint) (*DocumentView, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	doc, err := s.documents.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNoDocument
	}

	state := pipeline.Unindexed
	if idx, ok := s.indexes.Get(sessionID); ok && idx.Hash == doc.ContentHash {
		state = idx.State
	}
	return &DocumentView{Document: *doc, State: state.String()}, nil
}

func (s *DocumentService) Summarize(ctx context.Context, userID, sessionID uint) (*SummaryResult, error) {
	doc, idx, err := s.ready(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	summary, err := s.pipeline.Summarize(ctx, idx)
	if err != nil {
		return nil, err
	}
	if summary.Text != doc.Summary {
		if err := s.documents.UpdateSummary(ctx, doc.ID, summary.Text); err != nil {
			s.logger.Warn("persist summary failed", "session_id", sessionID, "error", err)
		}
	}
	return &SummaryResult{Summary: summary.Text, Parts: summary.Parts}, nil
}

func (s *DocumentService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	doc, idx, err := s.ready(ctx, input.UserID, input.SessionID)
	if err != nil {
		return nil, err
	}

	answer, err := s.pipeline.Ask(ctx, idx, question)
	if err != nil {
		return nil, err
	}

	record := model.QARecord{
		SessionID:     input.SessionID,
		DocumentID:    doc.ID,
		UserID:        input.UserID,
		Question:      question,
		Answer:        answer.Text,
		Context:       answer.Context.Text,
		ContextIndex:  answer.Context.Index,
		Score:         answer.Score,
		LowConfidence: answer.LowConfidence,
		CreatedAt:     time.Now(),
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, record); err != nil {
			s.logger.Warn("enqueue qa record failed", "session_id", input.SessionID, "error", err)
		}
	}
	s.touch(ctx, input.SessionID)

	return &AskResult{
		Answer:        answer.Text,
		Context:       answer.Context.Text,
		ContextIndex:  answer.Context.Index,
		Score:         answer.Score,
		LowConfidence: answer.LowConfidence,
	}, nil
}

func (s *DocumentService) History(ctx context.Context, userID, sessionID uint, limit int) ([]model.QARecord, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, err
	}
	return s.records.ListBySessionID(ctx, sessionID, limit)
}

func (s *DocumentService) session(ctx context.Context, userID, sessionID uint) (*model.Session, error) {
	if userID == 0 || sessionID == 0 {
		return nil, ErrInvalidInput
	}
	session, err := s.sessions.GetByIDAndUserID(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ready returns the session's document and its Ready index, rebuilding the
// index from the stored text when this process has not indexed it yet.
func (s *DocumentService) ready(ctx context.Context, userID, sessionID uint) (*model.Document, *pipeline.Index, error) {
	if _, err := s.session(ctx, userID, sessionID); err != nil {
		return nil, nil, err
	}
	doc, err := s.documents.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if doc == nil {
		return nil, nil, ErrNoDocument
	}

	if idx, ok := s.indexes.Get(sessionID); ok && idx.Hash == doc.ContentHash {
		return doc, idx, nil
	}
	if hash, ok := s.indexes.Hash(sessionID); ok && hash != doc.ContentHash {
		// An upload may be indexing text committed after our read. Loading
		// the row we hold would supersede it.
		doc, err = s.documents.GetBySessionID(ctx, sessionID)
		if err != nil {
			return nil, nil, err
		}
		if doc == nil {
			return nil, nil, ErrNoDocument
		}
	}
	idx, err := s.indexes.Load(ctx, sessionID, doc.RawText)
	if err != nil {
		if errors.Is(err, docstore.ErrSuperseded) {
			return nil, nil, ErrDocumentChanged
		}
		return nil, nil, err
	}
	return doc, idx, nil
}

func (s *DocumentService) touch(ctx context.Context, sessionID uint) {
	if err := s.sessions.Touch(ctx, sessionID); err != nil {
		s.logger.Warn("touch session failed", "session_id", sessionID, "error", err)
	}
}
