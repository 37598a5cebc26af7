package auth

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/term"
)

const rcFilename = ".iotlabrc"

// PromptFunc asks the user for a password.
type PromptFunc func(prompt string) (string, error)

// DefaultRCFile returns '~/.iotlabrc'.
func DefaultRCFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, rcFilename), nil
}

// Encode returns 'username:base64(password)', the rc file line format.
func Encode(creds models.Credentials) string {
	return creds.Username + ":" + base64.StdEncoding.EncodeToString([]byte(creds.Password))
}

// Decode parses a value written by Encode.
func Decode(encoded string) (models.Credentials, error) {
	parts := strings.SplitN(strings.TrimSpace(encoded), ":", 2)
	if len(parts) != 2 || parts[0] == "" {
		return models.Credentials{}, errors.New("invalid credentials file content: expected 'username:password'")
	}
	password, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return models.Credentials{}, fmt.Errorf("invalid credentials file content: %w", err)
	}
	return models.Credentials{Username: parts[0], Password: string(password)}, nil
}

// ReadRCFile returns the stored credentials. A missing file gives empty
// credentials and no error.
func ReadRCFile(path string) (models.Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		utils.Log.Debugf("No credentials file %s", path)
		return models.Credentials{}, nil
	}
	if err != nil {
		return models.Credentials{}, err
	}
	return Decode(string(data))
}

// WriteRCFile stores creds in path, readable by its owner only.
func WriteRCFile(path string, creds models.Credentials) error {
	if err := os.WriteFile(path, []byte(Encode(creds)), 0o600); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

// Resolve returns the credentials to use: the given ones if username is set,
// prompting for a missing password, else the ones stored in rcFile.
func Resolve(username, password, rcFile string, prompt PromptFunc) (models.Credentials, error) {
	if username == "" {
		return ReadRCFile(rcFile)
	}
	if password == "" {
		var err error
		password, err = prompt("Password: ")
		if err != nil {
			return models.Credentials{}, err
		}
	}
	return models.Credentials{Username: username, Password: password}, nil
}

// TerminalPrompt reads a password from in without echo when in is a
// terminal. out receives the prompt.
func TerminalPrompt(in *os.File, out io.Writer) PromptFunc {
	return func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		defer fmt.Fprintln(out)

		fd := int(in.Fd())
		if term.IsTerminal(fd) {
			password, err := term.ReadPassword(fd)
			if err != nil {
				return "", err
			}
			return string(password), nil
		}

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
