package openalex

import "fmt"

// maxErrBody begrenzt, wie viel der Antwort in Fehlermeldungen landet.
const maxErrBody = 500

// RequestRejectedError ist ein permanenter Fehler: die API hat die Anfrage
// abgelehnt (z.B. 403/404/422 wegen fehlendem Mailto oder kaputtem
// filter/select). Wiederholen hilft nicht.
type RequestRejectedError struct {
	StatusCode int
	URL        string
	Params     string
	Body       string
}

func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("openalex request rejected [%d] %s?%s: %s",
		e.StatusCode, e.URL, e.Params, e.Body)
}

// RetriesExhaustedError entsteht, wenn ein transienter Fehler (429/5xx) auch
// nach allen Backoff-Versuchen bestehen bleibt.
type RetriesExhaustedError struct {
	Attempts   int
	StatusCode int
	URL        string
	Params     string
	Body       string
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("openalex retries exhausted after %d attempts [%d] %s?%s: %s",
		e.Attempts, e.StatusCode, e.URL, e.Params, e.Body)
}

func truncateBody(b []byte) string {
	if len(b) > maxErrBody {
		return string(b[:maxErrBody])
	}
	return string(b)
}
