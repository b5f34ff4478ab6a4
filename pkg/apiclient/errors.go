package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
)

// errorFromResponse maps a non-2xx upstream reply onto the error taxonomy,
// keeping the upstream message verbatim.
func errorFromResponse(status int, body []byte) error {
	msg := upstreamMessage(status, body)
	return pkgerrors.New(codeForStatus(status), msg).WithDetails(map[string]any{"upstream_status": status})
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case status == http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case status == http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status >= 500:
		return pkgerrors.CodeDependency
	default:
		return pkgerrors.CodeValidation
	}
}

// upstreamMessage extracts a readable message from the "detail" field. Lists of
// field errors are flattened to "field: msg; field: msg".
func upstreamMessage(status int, body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := flattenDetail(payload.Detail); msg != "" {
			return msg
		}
		if strings.TrimSpace(payload.Message) != "" {
			return strings.TrimSpace(payload.Message)
		}
	}
	raw := strings.TrimSpace(string(body))
	if raw != "" && len(raw) <= int(errorBodyReadLimit) && !strings.HasPrefix(raw, "{") && !strings.HasPrefix(raw, "<") {
		return raw
	}
	if text := http.StatusText(status); text != "" {
		return strings.ToLower(text)
	}
	return fmt.Sprintf("upstream status %d", status)
}

type fieldDetail struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func flattenDetail(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, entry := range list {
			if msg := flattenEntry(entry); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return flattenEntry(raw)
}

func flattenEntry(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text)
	}
	var detail fieldDetail
	if err := json.Unmarshal(raw, &detail); err != nil || strings.TrimSpace(detail.Msg) == "" {
		return ""
	}
	field := fieldName(detail.Loc)
	if field == "" {
		return strings.TrimSpace(detail.Msg)
	}
	return field + ": " + strings.TrimSpace(detail.Msg)
}

// fieldName joins the location path, dropping the leading "body"/"query" segment.
func fieldName(loc []any) string {
	parts := make([]string, 0, len(loc))
	for i, segment := range loc {
		s := strings.TrimSpace(fmt.Sprint(segment))
		if i == 0 && (s == "body" || s == "query" || s == "path") {
			continue
		}
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ".")
}
