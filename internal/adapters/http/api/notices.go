package api

import (
	"net/http"

	"github.com/okian/bullseye/internal/domain/notice"
)

// NoticesHandler lists recent user-facing messages.
type NoticesHandler struct {
	src NoticeSource
}

// NewNoticesHandler creates a new notices handler.
func NewNoticesHandler(src NoticeSource) *NoticesHandler {
	return &NoticesHandler{src: src}
}

// HandleList handles GET /notices.
func (h *NoticesHandler) HandleList(w http.ResponseWriter, _ *http.Request) {
	items := h.src.Recent()
	if items == nil {
		items = []notice.Notice{}
	}
	writeJSON(w, http.StatusOK, items)
}
