package api

import (
	"net/http"

	"github.com/huongkhe/schoolsite/internal/mail"
	"github.com/huongkhe/schoolsite/internal/validation"
)

// handleContact forwards a contact form submission to the school.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) error {
	var c mail.Contact
	if err := validation.DecodeJSON(r.Body, &c); err != nil {
		return err
	}
	if err := s.validator.Struct(c); err != nil {
		return err
	}

	if err := s.mailer.SendContact(r.Context(), c); err != nil {
		return err
	}

	writeJSON(w, http.StatusAccepted, messageResponse{
		Success: true,
		Message: "Your message has been sent",
	})
	return nil
}
