package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"go.uber.org/zap"

	"github.com/launchwire/launchwire/internal/cms"
	"github.com/launchwire/launchwire/internal/cms/client"
	"github.com/launchwire/launchwire/internal/render"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type submissionForm struct {
	Name        string `schema:"name"`
	Website     string `schema:"website"`
	Tagline     string `schema:"tagline"`
	Description string `schema:"description"`
	Category    string `schema:"category"`
	City        string `schema:"city"`
	Email       string `schema:"email"`
}

func (f submissionForm) toSubmission() cms.Submission {
	return cms.Submission{
		Name:        strings.TrimSpace(f.Name),
		Website:     strings.TrimSpace(f.Website),
		Tagline:     strings.TrimSpace(f.Tagline),
		Description: strings.TrimSpace(f.Description),
		Category:    strings.TrimSpace(f.Category),
		City:        strings.TrimSpace(f.City),
		Email:       strings.TrimSpace(f.Email),
	}
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	s.renderSubmit(w, r, http.StatusOK, render.FormState{})
}

// handleSubmitPost validates the submission and forwards it to the CMS.
// Validation and upstream failures re-render the form with the user's
// values intact.
func (s *Server) handleSubmitPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderSubmit(w, r, http.StatusBadRequest, render.FormState{
			Error: "The form could not be read. Please try again.",
		})
		return
	}

	var form submissionForm
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		s.renderSubmit(w, r, http.StatusBadRequest, render.FormState{
			Error:  "The form could not be read. Please try again.",
			Values: formValues(r.PostForm),
		})
		return
	}

	sub := form.toSubmission()
	if err := sub.Validate(); err != nil {
		s.renderSubmit(w, r, http.StatusUnprocessableEntity, render.FormState{
			Error:  err.Error(),
			Values: formValues(r.PostForm),
		})
		return
	}

	if err := s.cms.SubmitStartup(r.Context(), sub); err != nil {
		s.logger.Warn("startup submission failed", zap.Error(err))
		msg := "Something went wrong submitting your startup. Please try again."
		status := http.StatusBadGateway
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			msg = apiErr.Message
			status = http.StatusUnprocessableEntity
		}
		s.renderSubmit(w, r, status, render.FormState{
			Error:  msg,
			Values: formValues(r.PostForm),
		})
		return
	}

	s.renderSubmit(w, r, http.StatusOK, render.FormState{
		Success: "Thanks! Your startup has been submitted for review.",
	})
}

func (s *Server) renderSubmit(w http.ResponseWriter, r *http.Request, status int, form render.FormState) {
	ch := s.loadChrome(r.Context())
	data := ch.page(ch.SEO.ForPath("Submit your startup", "", "/submit"), s.cfg.Site.Name)
	data.Form = form
	s.renderPage(w, "submit", "submit_form", status, data)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	s.handleNewsletter(w, r, "subscribed", s.cms.Subscribe)
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	s.handleNewsletter(w, r, "unsubscribed", s.cms.Unsubscribe)
}

// handleNewsletter forwards the email to the CMS and bounces the browser
// back to the homepage with an outcome flag the newsletter banner reads.
func (s *Server) handleNewsletter(
	w http.ResponseWriter,
	r *http.Request,
	flag string,
	action func(ctx context.Context, email string) error,
) {
	outcome := "1"
	if err := r.ParseForm(); err != nil {
		outcome = "0"
	} else {
		email := strings.TrimSpace(r.PostForm.Get("email"))
		if email == "" || !strings.Contains(email, "@") {
			outcome = "0"
		} else if err := action(r.Context(), email); err != nil {
			s.logger.Warn("newsletter request failed",
				zap.String("action", flag),
				zap.Error(err),
			)
			outcome = "0"
		}
	}
	http.Redirect(w, r, "/?"+flag+"="+outcome, http.StatusSeeOther)
}

func formValues(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for key := range values {
		out[key] = values.Get(key)
	}
	return out
}
