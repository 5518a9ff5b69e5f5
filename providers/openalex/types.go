package openalex

// Felder, die wir per select von der API anfordern. Verschachtelte Objekte
// werden komplett angefordert; gepunktete Selects quittiert die API mit 403.
const (
	authorSelect = "id,display_name,orcid,works_count,last_known_institutions"
	workSelect   = "id,display_name,publication_year,doi,type,type_crossref,primary_location,authorships,primary_topic,topics"
	topicSelect  = "id,display_name,subfield,field,domain"
)

// Ref ist das wiederkehrende {id, display_name}-Paar der API.
type Ref struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Author ist der Autoren-Payload der /authors-Collection.
type Author struct {
	ID                    string `json:"id"`
	DisplayName           string `json:"display_name"`
	ORCID                 string `json:"orcid"`
	WorksCount            int    `json:"works_count"`
	LastKnownInstitutions []Ref  `json:"last_known_institutions"`
}

// WorkAuthorship ist ein Eintrag der Autorenliste eines Werks.
type WorkAuthorship struct {
	Author         Ref    `json:"author"`
	AuthorPosition string `json:"author_position"`
	Institutions   []Ref  `json:"institutions"`
}

// Source ist die Quelle (Zeitschrift, Konferenzreihe) einer Location.
type Source struct {
	Type string `json:"type"`
}

// Location ist der Veröffentlichungsort eines Werks.
type Location struct {
	Source *Source `json:"source"`
}

// TopicRef ist die kompakte Topic-Referenz, wie sie am Werk hängt. Die
// Hierarchie kann unvollständig sein und wird dann vom TopicResolver
// nachgeladen.
type TopicRef struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Score       *float64 `json:"score"`
	Subfield    *Ref     `json:"subfield"`
	Field       *Ref     `json:"field"`
	Domain      *Ref     `json:"domain"`
}

// Work ist der Werk-Payload der /works-Collection.
type Work struct {
	ID              string           `json:"id"`
	DisplayName     string           `json:"display_name"`
	PublicationYear *int             `json:"publication_year"`
	DOI             *string          `json:"doi"`
	Type            string           `json:"type"`
	TypeCrossref    string           `json:"type_crossref"`
	PrimaryLocation *Location        `json:"primary_location"`
	Authorships     []WorkAuthorship `json:"authorships"`
	PrimaryTopic    *TopicRef        `json:"primary_topic"`
	Topics          []TopicRef       `json:"topics"`
}

// topicPayload ist die Antwort des /topics/{id}-Endpunkts.
type topicPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Subfield    *Ref   `json:"subfield"`
	Field       *Ref   `json:"field"`
	Domain      *Ref   `json:"domain"`
}
