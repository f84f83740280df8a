package app

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommended)
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// Auth guards mutating routes with HTTP Basic Auth. A zero Auth (no
// credentials loaded) lets every request through.
type Auth struct {
	user string
	hash []byte
	file string
	log  *zap.Logger
}

// LoadAuth reads username:hash from path. A missing file yields an
// unprotected Auth and a loud warning.
func LoadAuth(path string, log *zap.Logger) (*Auth, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Auth{file: path, log: log}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("no auth file found, mutating routes are UNPROTECTED (local development only)",
				zap.String("expected_file", path),
				zap.String("hint", "run: attendance hash-password"))
			return a, nil
		}
		return nil, fmt.Errorf("failed to read auth file: %w", err)
	}

	// Parse auth file (format: username:hash)
	line := strings.TrimSpace(string(data))
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid auth file format (expected: username:hash)")
	}

	a.user = parts[0]
	a.hash = []byte(parts[1])
	log.Info("basic auth enabled", zap.String("user", a.user), zap.String("file", path))
	return a, nil
}

// Enabled reports whether credentials are loaded.
func (a *Auth) Enabled() bool {
	return a != nil && a.hash != nil
}

// HashPassword creates an Argon2id hash of the password
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// Encode as: $argon2id$v=19$m=65536,t=1,p=4$salt$hash
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads, b64Salt, b64Hash), nil
}

// VerifyPassword verifies a password against an Argon2id hash
func VerifyPassword(password, hash string) (bool, error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		return false, fmt.Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("not an argon2id hash")
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("failed to parse hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("failed to decode salt: %w", err)
	}
	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("failed to decode hash: %w", err)
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(decodedHash)))
	return subtle.ConstantTimeCompare(decodedHash, computedHash) == 1, nil
}

// Require enforces Basic Auth when credentials are loaded
func (a *Auth) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1

		passMatch := false
		if ok && userMatch {
			var err error
			passMatch, err = VerifyPassword(pass, string(a.hash))
			if err != nil {
				a.log.Error("failed to verify password", zap.Error(err))
				passMatch = false
			}
		}

		if !ok || !userMatch || !passMatch {
			w.Header().Set("WWW-Authenticate", `Basic realm="Attendance"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			a.log.Warn("failed auth attempt", zap.String("remote", r.RemoteAddr), zap.String("user", user))
			return
		}

		next(w, r)
	}
}

// CreateAuthFile writes username:hash to path as a read-only file. An
// existing file is replaced only when overwrite is set or confirm agrees.
func CreateAuthFile(path, username, password string, overwrite bool, confirm func(string) bool) error {
	if username == "" || strings.Contains(username, ":") {
		return fmt.Errorf("username must be non-empty and must not contain ':'")
	}

	if _, err := os.Stat(path); err == nil {
		if !overwrite && (confirm == nil || !confirm(fmt.Sprintf("Auth file already exists: %s. Overwrite?", path))) {
			return fmt.Errorf("aborted")
		}
		// the file is 0400, so it has to be removed rather than truncated
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove existing auth file: %w", err)
		}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	content := fmt.Sprintf("%s:%s\n", username, hash)
	if err := os.WriteFile(path, []byte(content), 0400); err != nil {
		return fmt.Errorf("failed to write auth file: %w", err)
	}
	return nil
}
