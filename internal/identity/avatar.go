package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// AvatarURL returns the provider picture when present, otherwise a
// deterministic gravatar-style URL derived from the email address.
func AvatarURL(picture, email string) string {
	if picture != "" {
		return picture
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("https://gravatar.com/avatar/%s?d=identicon", hex.EncodeToString(sum[:]))
}
