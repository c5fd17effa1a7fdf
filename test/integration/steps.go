package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	noteIDs      map[string]int64
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:      tc,
		noteIDs: make(map[string]int64),
	}
}

type noteResponse struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	Title   string `json:"title"`
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.DB.Exec(`TRUNCATE notes RESTART IDENTITY`).Error
	})

	// Background steps
	sc.Step(`^the rlsnotes server is running$`, s.theServerIsRunning)
	sc.Step(`^user (\d+) owns a note titled "([^"]*)"$`, s.userOwnsANoteTitled)

	// Request steps
	sc.Step(`^I am user (\d+)$`, s.iAmUser)
	sc.Step(`^I create a note titled "([^"]*)"$`, s.iCreateANoteTitled)
	sc.Step(`^I create a note titled "([^"]*)" owned by user (\d+)$`, s.iCreateANoteTitledOwnedBy)
	sc.Step(`^I list my notes$`, s.iListMyNotes)
	sc.Step(`^I fetch the note titled "([^"]*)"$`, s.iFetchTheNoteTitled)
	sc.Step(`^I delete the note titled "([^"]*)"$`, s.iDeleteTheNoteTitled)
	sc.Step(`^I ask who I am$`, s.iAskWhoIAm)
	sc.Step(`^I request "([^"]*)" without a token$`, s.iRequestWithoutAToken)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response error should be "([^"]*)"$`, s.theResponseErrorShouldBe)
	sc.Step(`^the response should list (\d+) notes?$`, s.theResponseShouldListNotes)
	sc.Step(`^every listed note should be owned by user (\d+)$`, s.everyListedNoteShouldBeOwnedBy)
	sc.Step(`^the bound identity should be "([^"]*)"$`, s.theBoundIdentityShouldBe)

	// Database steps
	sc.Step(`^the database should hold (\d+) notes? titled "([^"]*)"$`, s.theDatabaseShouldHoldNotesTitled)
}

// Background steps

func (s *StepsContext) theServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

// userOwnsANoteTitled seeds a row directly, outside any scoped transaction
func (s *StepsContext) userOwnsANoteTitled(owner int64, title string) error {
	var id int64
	err := s.tc.DB.Raw(`INSERT INTO notes (owner_id, title) VALUES (?, ?) RETURNING id`, owner, title).Scan(&id).Error
	if err != nil {
		return err
	}
	s.noteIDs[title] = id
	return nil
}

// Request steps

func (s *StepsContext) iAmUser(userID int64) error {
	token, _, err := s.tc.Tokens.Issue(userID, 0)
	if err != nil {
		return err
	}
	s.authToken = token
	return nil
}

func (s *StepsContext) iCreateANoteTitled(title string) error {
	return s.createNote(map[string]interface{}{"title": title}, title)
}

func (s *StepsContext) iCreateANoteTitledOwnedBy(title string, owner int64) error {
	return s.createNote(map[string]interface{}{"title": title, "owner_id": owner}, title)
}

func (s *StepsContext) createNote(body map[string]interface{}, title string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	if err := s.do("POST", "/notes", payload, true); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var note noteResponse
		if err := json.Unmarshal(s.responseBody, &note); err != nil {
			return fmt.Errorf("failed to parse note: %w", err)
		}
		s.noteIDs[title] = note.ID
	}
	return nil
}

func (s *StepsContext) iListMyNotes() error {
	return s.do("GET", "/notes", nil, true)
}

func (s *StepsContext) iFetchTheNoteTitled(title string) error {
	id, err := s.noteID(title)
	if err != nil {
		return err
	}
	return s.do("GET", "/notes/"+strconv.FormatInt(id, 10), nil, true)
}

func (s *StepsContext) iDeleteTheNoteTitled(title string) error {
	id, err := s.noteID(title)
	if err != nil {
		return err
	}
	return s.do("DELETE", "/notes/"+strconv.FormatInt(id, 10), nil, true)
}

func (s *StepsContext) iAskWhoIAm() error {
	return s.do("GET", "/whoami", nil, true)
}

func (s *StepsContext) iRequestWithoutAToken(path string) error {
	return s.do("GET", path, nil, false)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseErrorShouldBe(expected string) error {
	var body map[string]string
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse error body %q: %w", string(s.responseBody), err)
	}
	if body["error"] != expected {
		return fmt.Errorf("expected error %q, got %q", expected, body["error"])
	}
	return nil
}

func (s *StepsContext) theResponseShouldListNotes(count int) error {
	notes, err := s.listedNotes()
	if err != nil {
		return err
	}
	if len(notes) != count {
		return fmt.Errorf("expected %d notes, got %d: %s", count, len(notes), string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) everyListedNoteShouldBeOwnedBy(owner int64) error {
	notes, err := s.listedNotes()
	if err != nil {
		return err
	}
	for _, n := range notes {
		if n.OwnerID != owner {
			return fmt.Errorf("note %d is owned by %d, expected %d", n.ID, n.OwnerID, owner)
		}
	}
	return nil
}

func (s *StepsContext) theBoundIdentityShouldBe(expected string) error {
	var body struct {
		Binding string `json:"binding"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse whoami: %w", err)
	}
	if body.Binding != expected {
		return fmt.Errorf("expected binding %q, got %q", expected, body.Binding)
	}
	return nil
}

// Database steps

func (s *StepsContext) theDatabaseShouldHoldNotesTitled(count int, title string) error {
	var n int64
	if err := s.tc.DB.Raw(`SELECT count(*) FROM notes WHERE title = ?`, title).Scan(&n).Error; err != nil {
		return err
	}
	if int(n) != count {
		return fmt.Errorf("expected %d notes titled %q, found %d", count, title, n)
	}
	return nil
}

// helpers

func (s *StepsContext) do(method, path string, body []byte, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, s.tc.ServerURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated && s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func (s *StepsContext) noteID(title string) (int64, error) {
	id, ok := s.noteIDs[title]
	if !ok {
		return 0, fmt.Errorf("no note titled %q was created in this scenario", strings.TrimSpace(title))
	}
	return id, nil
}

func (s *StepsContext) listedNotes() ([]noteResponse, error) {
	var notes []noteResponse
	if err := json.Unmarshal(s.responseBody, &notes); err != nil {
		return nil, fmt.Errorf("failed to parse note list %q: %w", string(s.responseBody), err)
	}
	return notes, nil
}
