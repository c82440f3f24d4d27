package mail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	netmail "net/mail"
	"strings"

	"github.com/cockroachdb/errors"
)

// Message is the readable form of a stored email.
type Message struct {
	Subject string `json:"subject"`
	From    string `json:"from"`
	To      string `json:"to"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// ErrInvalidAddress means a recipient is not a single well-formed address.
var ErrInvalidAddress = errors.New("invalid recipient address")

// ParseRecipient validates one recipient and returns it in header form.
// Line breaks are rejected outright so the value cannot start a new header.
func ParseRecipient(to string) (string, error) {
	if strings.ContainsAny(to, "\r\n") {
		return "", errors.Wrapf(ErrInvalidAddress, "%q contains a line break", to)
	}
	addr, err := netmail.ParseAddress(strings.TrimSpace(to))
	if err != nil {
		return "", errors.Wrapf(ErrInvalidAddress, "%q: %v", to, err)
	}
	if addr.Name == "" {
		return addr.Address, nil
	}
	return addr.String(), nil
}

// Compose builds a plain-text RFC 2822 message.
func Compose(from, to, subject, body string) ([]byte, error) {
	to, err := ParseRecipient(to)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	if from != "" {
		fmt.Fprintf(&buf, "From: %s\r\n", from)
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, errors.Wrap(err, "encode body")
	}
	if err := qp.Close(); err != nil {
		return nil, errors.Wrap(err, "encode body")
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

// DecodeRaw decodes the base64url "raw" field the Gmail API returns.
func DecodeRaw(raw string) ([]byte, error) {
	b, err := base64.URLEncoding.DecodeString(raw)
	if err == nil {
		return b, nil
	}
	b, rerr := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if rerr != nil {
		return nil, errors.Wrap(err, "decode raw message")
	}
	return b, nil
}

// Parse reads an RFC 2822 message. Content is the first text/plain part.
func Parse(data []byte) (Message, error) {
	m, err := netmail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return Message{}, errors.Wrap(err, "parse message")
	}
	body, err := plainText(m.Header.Get("Content-Type"), m.Header.Get("Content-Transfer-Encoding"), m.Body)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: decodeHeader(m.Header.Get("Subject")),
		From:    m.Header.Get("From"),
		To:      m.Header.Get("To"),
		Date:    m.Header.Get("Date"),
		Content: body,
	}, nil
}

func decodeHeader(h string) string {
	dec := new(mime.WordDecoder)
	s, err := dec.DecodeHeader(h)
	if err != nil {
		return h
	}
	return s
}

func plainText(contentType, encoding string, r io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		mr := multipart.NewReader(r, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return "", nil
			}
			if err != nil {
				return "", errors.Wrap(err, "read multipart body")
			}
			text, err := plainText(part.Header.Get("Content-Type"), part.Header.Get("Content-Transfer-Encoding"), part)
			if err != nil {
				return "", err
			}
			if text != "" {
				return text, nil
			}
		}
	}
	if mediaType != "text/plain" {
		return "", nil
	}

	b, err := io.ReadAll(decodeTransfer(encoding, r))
	if err != nil {
		return "", errors.Wrap(err, "read body")
	}
	return string(b), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
