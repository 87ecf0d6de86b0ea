package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shouni/zen-logo-kit/pkg/domain"
	"github.com/shouni/zen-logo-kit/pkg/export"
	"github.com/shouni/zen-logo-kit/pkg/input"
	"github.com/shouni/zen-logo-kit/pkg/prompt"
	"github.com/shouni/zen-logo-kit/pkg/session"
)

// maxBodyBytes は data URL (base64) で送られる 5MB の参照画像を収められる上限です。
const maxBodyBytes = 8 << 20

type submitRequest struct {
	StoreName      string `json:"storeName"`
	Slogan         string `json:"slogan"`
	Services       string `json:"services"`
	Style          string `json:"style"`
	ReferenceImage string `json:"referenceImage"`
	// ReferenceURL は referenceImage が空の場合のみ使います。
	ReferenceURL string `json:"referenceUrl"`
}

func (s *Server) toInput(ctx context.Context, req submitRequest) (domain.UserInput, error) {
	style, err := domain.ParseBrandingStyle(req.Style)
	if err != nil {
		return domain.UserInput{}, err
	}
	ref, err := input.FromDataURL(req.ReferenceImage)
	if err != nil {
		return domain.UserInput{}, err
	}
	if ref == nil && req.ReferenceURL != "" {
		if ref, err = s.fetcher.Fetch(ctx, req.ReferenceURL); err != nil {
			return domain.UserInput{}, err
		}
	}
	in := domain.UserInput{
		StoreName: req.StoreName,
		Slogan:    req.Slogan,
		Services:  req.Services,
		Style:     style,
		Reference: ref,
	}
	return in, in.Validate()
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type selectRequest struct {
	Index *int `json:"index"`
}

type styleResponse struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStyles(w http.ResponseWriter, _ *http.Request) {
	styles := domain.AllStyles()
	out := make([]styleResponse, 0, len(styles))
	for _, st := range styles {
		out = append(out, styleResponse{Key: st.Key(), Value: string(st), Description: prompt.StyleDescriptions[st]})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess.View())
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	writeJSON(w, http.StatusOK, sess.View())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	in, err := s.toInput(ctx, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.respond(ctx, w, sess, sess.Submit(ctx, in))
}

func (s *Server) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	ctx, cancel := s.requestContext(r)
	defer cancel()
	s.respond(ctx, w, sess, sess.Regenerate(ctx))
}

func (s *Server) handleRefine(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	ctx, cancel := s.requestContext(r)
	defer cancel()
	s.respond(ctx, w, sess, sess.Refine(ctx))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	sess.Reset()
	s.respond(r.Context(), w, sess, nil)
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	var req promptRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(r.Context(), w, sess, sess.SetPrompt(req.Prompt))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Index == nil {
		writeError(w, http.StatusBadRequest, errors.New("index is required"))
		return
	}
	s.respond(r.Context(), w, sess, sess.SelectLogo(*req.Index))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, release, ok := s.lookup(w, r)
	if !ok {
		return
	}
	defer release()
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	data, err := export.Selected(sess.View(), format)
	if err != nil {
		var pe *domain.PreconditionError
		if errors.As(err, &pe) {
			writeError(w, http.StatusConflict, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileNameFor(s.now(), format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.WarnContext(r.Context(), "画像の書き込みに失敗しました", "session", sess.ID(), "error", err)
	}
}

// lookup はセッションを取得します。ok が true の場合、呼び出し側は処理の最後に release を呼びます。
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, func(), bool) {
	id := mux.Vars(r)["id"]
	sess, release, err := s.sessions.Acquire(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("session %s not found", id))
			return nil, nil, false
		}
		writeError(w, http.StatusInternalServerError, err)
		return nil, nil, false
	}
	return sess, release, true
}

// respond は操作結果を保存し、エラーの種類に応じたステータスでセッションの状態を返します。
// 分析と生成の失敗はセッションの error フィールドに記録済みのため 200 で返します。
func (s *Server) respond(ctx context.Context, w http.ResponseWriter, sess *session.Session, opErr error) {
	if err := s.sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("session %s was deleted", sess.ID()))
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if opErr == nil || session.IsDiscarded(opErr) {
		writeJSON(w, http.StatusOK, sess.View())
		return
	}
	if status := statusFor(opErr); status != http.StatusOK {
		writeError(w, status, opErr)
		return
	}
	writeJSON(w, http.StatusOK, sess.View())
}

func statusFor(err error) int {
	var (
		pe *domain.PreconditionError
		ce *domain.ConfigurationError
	)
	switch {
	case errors.Is(err, session.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.As(err, &ce):
		return http.StatusServiceUnavailable
	default:
		return http.StatusOK
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}
