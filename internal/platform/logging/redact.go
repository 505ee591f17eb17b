package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// sensitiveFields are attribute keys whose values never reach a log sink.
// Upstream documents can carry credentials in attributes, so the list covers both
// header style and JSON:API attribute style names.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"apiKey", "apikey", "api_key", "api-key",
	"accessToken", "access_token", "access-token",
	"refreshToken", "refresh_token", "refresh-token",
	"credential", "credentials",
	"authorization",
	"auth",
	"bearer",
	"cookie",
	"session",
	"privateKey", "private_key", "private-key",
	"secretKey", "secret_key", "secret-key",
}

var sensitivePrefixes = []string{"secret", "private"}

var sensitiveValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`), // JWT
	regexp.MustCompile(`(?i)^bearer\s+.+$`),
	regexp.MustCompile(`(?i)^basic\s+.+$`),
}

// DefaultRedactOptions returns the masq options used by every handler built by New.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+len(sensitivePrefixes)+len(sensitiveValues))

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}

	for _, pattern := range sensitiveValues {
		opts = append(opts, masq.WithRegex(pattern))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr func that redacts sensitive values.
// Extra options extend the defaults.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
