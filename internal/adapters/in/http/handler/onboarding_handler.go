// internal/adapters/in/http/handler/onboarding_handler.go
package handler

import (
	"errors"
	"net/http"
	"strings"

	"atelier/internal/adapters/in/http/middleware"
	"atelier/internal/application/onboarding"
)

const maxOnboardingUpload = 32 << 20 // whole multipart form

// OnboardingHandler accepts tailor applications as multipart forms:
// text fields "atelier" and "specialty" plus one or more "documents" files.
type OnboardingHandler struct {
	Onboarding *onboarding.Usecase
}

func NewOnboardingHandler(u *onboarding.Usecase) *OnboardingHandler {
	return &OnboardingHandler{Onboarding: u}
}

func (h *OnboardingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	uid, ok := middleware.CurrentUserUID(r)
	if !ok {
		writeErr(w, http.StatusUnauthorized, "no authenticated user")
		return
	}

	if err := r.ParseMultipartForm(maxOnboardingUpload); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	sub := onboarding.Submission{
		UID:         uid,
		Email:       middleware.CurrentUserEmail(r),
		DisplayName: middleware.CurrentUserName(r),
		Atelier:     strings.TrimSpace(r.FormValue("atelier")),
		Specialty:   strings.TrimSpace(r.FormValue("specialty")),
	}

	files := r.MultipartForm.File["documents"]
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			writeErr(w, http.StatusBadRequest, "cannot read uploaded file: "+err.Error())
			return
		}
		defer f.Close()
		sub.Documents = append(sub.Documents, onboarding.Document{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	if err := h.Onboarding.Submit(r.Context(), sub); err != nil {
		if errors.Is(err, onboarding.ErrNoDocuments) {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "submitted"})
}
