// Package flash carries one-shot user messages across a redirect in a cookie.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const cookieName = "flash"

type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

const pendingKey = "flash.pending"

// Add queues a message for the next response that pops messages.
func Add(c *gin.Context, level Level, text string) {
	msgs := append(pending(c), Message{Level: level, Text: text})
	c.Set(pendingKey, msgs)
	write(c, msgs)
}

// Pop returns queued messages (from the request cookie and from this request)
// and clears the cookie.
func Pop(c *gin.Context) []Message {
	msgs := pending(c)
	if len(msgs) == 0 {
		return msgs
	}
	c.Set(pendingKey, []Message{})
	expire(c)
	return msgs
}

// pending merges messages already queued during this request with the ones
// the client sent back in its cookie.
func pending(c *gin.Context) []Message {
	if v, ok := c.Get(pendingKey); ok {
		return v.([]Message)
	}
	msgs := []Message{}
	if raw, err := c.Cookie(cookieName); err == nil && raw != "" {
		if b, err := base64.RawURLEncoding.DecodeString(raw); err == nil {
			_ = json.Unmarshal(b, &msgs)
		}
	}
	c.Set(pendingKey, msgs)
	return msgs
}

func write(c *gin.Context, msgs []Message) {
	b, err := json.Marshal(msgs)
	if err != nil {
		return
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func expire(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
