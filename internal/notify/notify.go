// Package notify holds the two transient banners shown to the user: one
// error and one success message. Each expires on its own TTL.
package notify

import (
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultErrorTTL   = 7 * time.Second
	DefaultMessageTTL = 5 * time.Second

	errorKey   = "error"
	messageKey = "message"
)

// Banner is one live notification.
type Banner struct {
	Text      string    `json:"text"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Banners is the set of live notifications. A nil field means the slot is empty.
type Banners struct {
	Error   *Banner `json:"error,omitempty"`
	Message *Banner `json:"message,omitempty"`
}

// Config configures a Notifier.
type Config struct {
	ErrorTTL   time.Duration
	MessageTTL time.Duration
	Logger     *slog.Logger
}

// Notifier stores the banners. Setting a slot replaces what it held.
type Notifier struct {
	items      *cache.Cache
	errorTTL   time.Duration
	messageTTL time.Duration
	logger     *slog.Logger
}

// New creates a Notifier.
func New(cfg Config) *Notifier {
	if cfg.ErrorTTL <= 0 {
		cfg.ErrorTTL = DefaultErrorTTL
	}
	if cfg.MessageTTL <= 0 {
		cfg.MessageTTL = DefaultMessageTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Notifier{
		items:      cache.New(cache.NoExpiration, time.Minute),
		errorTTL:   cfg.ErrorTTL,
		messageTTL: cfg.MessageTTL,
		logger:     cfg.Logger,
	}
}

// Error shows text in the error slot.
func (n *Notifier) Error(text string) {
	n.set(errorKey, text, n.errorTTL)
	n.logger.Debug("error banner", "text", text)
}

// Message shows text in the success slot.
func (n *Notifier) Message(text string) {
	n.set(messageKey, text, n.messageTTL)
	n.logger.Debug("message banner", "text", text)
}

// ClearError empties the error slot.
func (n *Notifier) ClearError() {
	n.items.Delete(errorKey)
}

// ClearMessage empties the success slot.
func (n *Notifier) ClearMessage() {
	n.items.Delete(messageKey)
}

// Current returns the banners that have not expired.
func (n *Notifier) Current() Banners {
	return Banners{
		Error:   n.get(errorKey),
		Message: n.get(messageKey),
	}
}

func (n *Notifier) set(key, text string, ttl time.Duration) {
	n.items.Set(key, Banner{Text: text, ExpiresAt: time.Now().Add(ttl)}, ttl)
}

func (n *Notifier) get(key string) *Banner {
	v, ok := n.items.Get(key)
	if !ok {
		return nil
	}
	b := v.(Banner)
	return &b
}
