package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func multipartCSV(t *testing.T, csvBody string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", "upload.csv")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := fw.Write([]byte(csvBody)); err != nil {
		t.Fatalf("writing form file failed: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer failed: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestIngestCSV(t *testing.T) {
	tests := []struct {
		name         string
		csvBody      string
		wantStatus   int
		wantInserted int
	}{
		{
			name:         "two rows",
			csvBody:      "step,customer,amount,fraud\n1,c1,10.5,0\n2,c2,3.0,1\n",
			wantStatus:   http.StatusOK,
			wantInserted: 2,
		},
		{
			name:         "header only",
			csvBody:      "step,customer,amount,fraud\n",
			wantStatus:   http.StatusOK,
			wantInserted: 0,
		},
		{
			name:       "not tabular",
			csvBody:    "a,b\n\"unterminated",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			h := NewIngestHandler(repo, zerolog.Nop())

			body, contentType := multipartCSV(t, tt.csvBody)
			req := httptest.NewRequest(http.MethodPost, "/ingest/csv", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.IngestCSV(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp map[string]int
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON response: %v", err)
			}
			if resp["inserted"] != tt.wantInserted {
				t.Errorf("inserted = %d, want %d", resp["inserted"], tt.wantInserted)
			}
		})
	}
}

func TestIngestCSV_MissingFile(t *testing.T) {
	h := NewIngestHandler(&mockRepo{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/ingest/csv", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()

	h.IngestCSV(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateTransaction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "complete record",
			body:       `{"step":3,"customer":"c1","age":"26-35","amount":45.5,"fraud":1}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "required fields only",
			body:       `{"step":0,"customer":"c1","amount":0,"fraud":0}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing amount",
			body:       `{"step":3,"customer":"c1","fraud":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing customer",
			body:       `{"step":3,"amount":1.0,"fraud":0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid JSON",
			body:       `{"step":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			h := NewIngestHandler(repo, zerolog.Nop())

			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			h.CreateTransaction(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK && repo.insertedTx == nil {
				t.Error("expected a transaction to reach storage")
			}
			if tt.wantStatus == http.StatusBadRequest && repo.insertedTx != nil {
				t.Error("rejected request still reached storage")
			}
		})
	}
}

func TestCreateTransaction_ZeroValuesAreValid(t *testing.T) {
	repo := &mockRepo{}
	h := NewIngestHandler(repo, zerolog.Nop())

	body := `{"step":0,"customer":"c1","amount":0,"fraud":0}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.CreateTransaction(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.insertedTx == nil {
		t.Fatal("expected a transaction to reach storage")
	}
	if repo.insertedTx.Step != 0 || repo.insertedTx.Amount != 0 || repo.insertedTx.Fraud != 0 {
		t.Errorf("zero values mangled: %+v", repo.insertedTx)
	}
	if repo.insertedTx.Age != nil {
		t.Error("absent optional field should stay nil")
	}
}
