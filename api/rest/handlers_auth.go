package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
)

type issueCredentialRequest struct {
	Subject   string `json:"subject" binding:"required"`
	Workspace string `json:"workspace" binding:"required"`
}

// issueCredential mints a short-lived bearer token for (subject,
// workspace) via the credential-issuance hook. There is no login flow
// behind this: any caller that can reach the endpoint can mint a token.
func (s *Server) issueCredential(c *gin.Context) {
	if s.deps.Issuer == nil {
		respondErr(c, svcerrors.Internal("credential issuer not configured", nil))
		return
	}
	var req issueCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondErr(c, svcerrors.InvalidInput("body", err.Error()))
		return
	}

	token, err := s.deps.Issuer.Issue(req.Subject, req.Workspace)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"token": token})
}
