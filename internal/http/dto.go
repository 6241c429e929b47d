package http

// ProfileTokenRequest es el POST del token del login social.
type ProfileTokenRequest struct {
	Token string `json:"token"`
}

// ProfileTokenResponse confirma que la sesión quedó enriquecida.
type ProfileTokenResponse struct {
	Identifiers int    `json:"identifiers"`
	Name        string `json:"name"`
}

// LoginResponse es el resultado de resolve+finalize.
type LoginResponse struct {
	AccountID     string `json:"account_id,omitempty"`
	AwaitingProof bool   `json:"awaiting_proof,omitempty"`
	Outcome       string `json:"outcome"`
}

// LinkAfterProofRequest fuerza el link después de probar el password.
type LinkAfterProofRequest struct {
	AccountID string `json:"account_id"`
}

// TokenResponse devuelve el access token vigente de la sesión.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
}
