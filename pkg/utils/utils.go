package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

func init() {
	Log.SetOutput(os.Stderr)
	Log.SetLevel(log.WarnLevel)
}

func SetLogLevel(level string) error {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		return fmt.Errorf("bad log level string %q", level)
	}
	return nil
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile reads path after '~' expansion.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		Log.WithError(err).Debug("error reading file")
		return nil, err
	}
	return data, nil
}

func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		expanded, err := homedir.Expand(path)
		if err == nil {
			return expanded
		}
	}
	return path
}

// JSONDumps renders v with sorted keys and a 4 spaces indent.
// Raw JSON documents are re-encoded so their keys get sorted too.
func JSONDumps(v interface{}) (string, error) {
	if raw, ok := v.(json.RawMessage); ok {
		var decoded interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err != nil {
			return "", err
		}
		v = decoded
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
