package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prasenjit/servicevirt/internal/models"
)

func TestFileStorage_Reload(t *testing.T) {
	dir := t.TempDir()

	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	seed(t, fs)

	_ = fs.SaveSequenceIndex("op-1", 1)
	_ = fs.SaveOperationStatus("op-1", models.StatusRecording)
	_ = fs.AppendMockResponse("op-1", &models.MockResponse{ID: "rec", Name: "Recorded response"})

	if _, err := os.Stat(filepath.Join(dir, operationsDir, "op-1.json")); err != nil {
		t.Fatalf("Expected operation file: %v", err)
	}

	reloaded, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	op, err := reloaded.LoadOperation("op-1")
	if err != nil {
		t.Fatalf("LoadOperation failed: %v", err)
	}
	if op.Status != models.StatusRecording || op.CurrentResponseSequenceIndex != 1 {
		t.Errorf("Expected persisted status and cursor, got %s / %d", op.Status, op.CurrentResponseSequenceIndex)
	}
	if len(op.MockResponses) != 3 || op.MockResponses[2].ID != "rec" {
		t.Fatalf("Expected recorded response last, got %+v", op.MockResponses)
	}

	// New responses continue after the reloaded ones
	_ = reloaded.CreateMockResponse(&models.MockResponse{ID: "late", OperationID: "op-1"})
	responses, _ := reloaded.GetMockResponsesByOperation("op-1")
	if responses[len(responses)-1].ID != "late" {
		t.Errorf("Expected 'late' last, got %q", responses[len(responses)-1].ID)
	}
}

func TestFileStorage_DeleteRemovesFiles(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewFileStorage(dir)
	seed(t, fs)

	if err := fs.DeleteService("svc-1"); err != nil {
		t.Fatalf("DeleteService failed: %v", err)
	}

	for _, p := range []string{
		filepath.Join(dir, servicesDir, "svc-1.json"),
		filepath.Join(dir, operationsDir, "op-1.json"),
		filepath.Join(dir, responsesDir, "r1.json"),
	} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed", p)
		}
	}
}

func TestFileStorage_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, servicesDir), 0755); err != nil {
		t.Fatal(err)
	}
	_ = os.WriteFile(filepath.Join(dir, servicesDir, "bad.json"), []byte("{not json"), 0644)

	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	services, _ := fs.GetAllServices()
	if len(services) != 0 {
		t.Errorf("Expected corrupt file skipped, got %d services", len(services))
	}
}
