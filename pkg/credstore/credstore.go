// Package credstore persists a generated application credential. The
// credential is written as YAML; when age recipients are configured the YAML
// is age-encrypted and ASCII-armored so the secret never rests in plaintext.
package credstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"
	"gopkg.in/yaml.v3"

	"github.com/windowsadmins/adminkit/pkg/utils"
)

// ErrEncrypted is returned by Load when the file is encrypted and no identity was given.
var ErrEncrypted = errors.New("credential file is encrypted; an age identity is required")

// Credential is a registered application and its client secret.
type Credential struct {
	TenantID           string    `yaml:"tenant_id,omitempty"`
	DisplayName        string    `yaml:"display_name"`
	AppID              string    `yaml:"app_id"`
	ObjectID           string    `yaml:"object_id"`
	ServicePrincipalID string    `yaml:"service_principal_id,omitempty"`
	SecretID           string    `yaml:"secret_id"`
	Secret             string    `yaml:"secret"`
	Expires            time.Time `yaml:"expires"`
	Created            time.Time `yaml:"created"`
}

// Save writes cred to path with owner-only permissions. Recipients are age
// X25519 public keys (age1...); none means plaintext YAML.
func Save(path string, cred Credential, recipients []string) error {
	data, err := yaml.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encoding credential: %w", err)
	}
	if len(recipients) > 0 {
		data, err = seal(data, recipients)
		if err != nil {
			return err
		}
	}
	if err := utils.WriteFileAtomic(path, data, 0600); err != nil {
		return fmt.Errorf("writing credential %s: %w", path, err)
	}
	return nil
}

// Load reads a credential written by Save. Identities are age secret keys
// (AGE-SECRET-KEY-1...) and are only needed for encrypted files.
func Load(path string, identities []string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if IsSealed(data) {
		if len(identities) == 0 {
			return nil, ErrEncrypted
		}
		data, err = open(data, identities)
		if err != nil {
			return nil, err
		}
	}
	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parsing credential %s: %w", path, err)
	}
	return &cred, nil
}

// IsSealed reports whether data is an armored age file.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte(armor.Header))
}

// ParseRecipients parses age X25519 public keys, failing on the first bad one.
func ParseRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		r, err := age.ParseX25519Recipient(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, r)
	}
	return recipients, nil
}

func seal(plaintext []byte, recipientKeys []string) ([]byte, error) {
	recipients, err := ParseRecipients(recipientKeys)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("encrypting credential: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := aw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing armor: %w", err)
	}
	return buf.Bytes(), nil
}

func open(ciphertext []byte, identityKeys []string) ([]byte, error) {
	identities := make([]age.Identity, 0, len(identityKeys))
	for _, key := range identityKeys {
		id, err := age.ParseX25519Identity(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("parsing age identity: %w", err)
		}
		identities = append(identities, id)
	}
	r, err := age.Decrypt(armor.NewReader(bytes.NewReader(ciphertext)), identities...)
	if err != nil {
		return nil, fmt.Errorf("decrypting credential: %w", err)
	}
	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted credential: %w", err)
	}
	return plaintext, nil
}
