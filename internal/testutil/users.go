package testutil

import "lsablog/internal/models"

// Fixture actors.
var (
	Alice = &models.ActingUser{ID: "7d3c1b1e-alice", DisplayName: "Alice Mwangi", AvatarURL: "https://img.example/alice.png", Email: "alice@example.org"}
	Bob   = &models.ActingUser{ID: "9a8f2c4d-bob", DisplayName: "Bob Otieno", Email: "bob@example.org"}
)

// TokenSecret signs tokens in handler tests.
const TokenSecret = "test-secret-at-least-32-characters!!"
