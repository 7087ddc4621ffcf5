package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Jamesybdp/VetaCV-AI/internal/models"
)

// fakeRenderer scripts the render tier.
type fakeRenderer struct {
	calls int
	data  []byte
	err   error
}

func (f *fakeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func docState(markup string) models.DocumentState {
	return models.DocumentState{Markup: markup, DigitalSummary: "test"}
}

const goodMarkup = "<h1>Jane Doe</h1>\n<h2>PROFILE</h2>\n<p>Financial analyst with a decade of experience.</p>\n<ul><li>Led teams</li></ul>"

func TestExportHappyPath(t *testing.T) {
	r := &fakeRenderer{data: []byte("%PDF-fake")}
	o := NewOrchestrator(r)

	res, err := o.Export(context.Background(), docState(goodMarkup), "cv")
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact == nil || res.Artifact.Kind != ArtifactPDF {
		t.Fatalf("artifact = %+v, want PDF", res.Artifact)
	}
	if res.Artifact.FileName != "cv.pdf" {
		t.Errorf("FileName = %q", res.Artifact.FileName)
	}
	if !res.Outcome.Succeeded || res.Outcome.Degraded {
		t.Errorf("outcome = %+v, want succeeded and not degraded", res.Outcome)
	}
	want := []Phase{PhaseIdle, PhaseRepairing, PhaseHealthChecking, PhaseRendering, PhaseSucceeded}
	if len(res.Trace) != len(want) {
		t.Fatalf("trace = %v, want %v", res.Trace, want)
	}
	for i := range want {
		if res.Trace[i] != want[i] {
			t.Errorf("trace[%d] = %s, want %s", i, res.Trace[i], want[i])
		}
	}
}

func TestExportRenderFailureFallsBackToPlainText(t *testing.T) {
	r := &fakeRenderer{err: errors.New("chromium crashed")}
	o := NewOrchestrator(r)

	res, err := o.Export(context.Background(), docState(goodMarkup), "cv")
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifact == nil || res.Artifact.Kind != ArtifactText {
		t.Fatalf("artifact = %+v, want plain text", res.Artifact)
	}
	if !res.Outcome.Degraded || !res.Outcome.Succeeded {
		t.Errorf("outcome = %+v, want degraded success", res.Outcome)
	}
	if !strings.Contains(res.Outcome.Reason, "render failed") {
		t.Errorf("Reason = %q", res.Outcome.Reason)
	}
	text := string(res.Artifact.Data)
	if !strings.Contains(text, "Jane Doe") || !strings.Contains(text, "Led teams") {
		t.Errorf("plain text lost content:\n%s", text)
	}
}

func TestExportCriticalSkipsRender(t *testing.T) {
	r := &fakeRenderer{data: []byte("%PDF-fake")}
	o := NewOrchestrator(r)

	// Heavy alternating-case corruption pushes the verdict past critical;
	// the repair passes do not touch it.
	corrupted := strings.Repeat("aB", 20)
	res, err := o.Export(context.Background(), docState(corrupted), "cv")
	if err != nil {
		t.Fatal(err)
	}
	if r.calls != 0 {
		t.Errorf("renderer called %d times for a critical document", r.calls)
	}
	for _, p := range res.Trace {
		if p == PhaseRendering {
			t.Errorf("trace contains rendering phase: %v", res.Trace)
		}
	}
	if res.Artifact == nil || res.Artifact.Kind != ArtifactText {
		t.Fatalf("artifact = %+v, want plain text fallback", res.Artifact)
	}
	if !strings.Contains(res.Outcome.Reason, "critical") {
		t.Errorf("Reason = %q, want critical mention", res.Outcome.Reason)
	}
}

func TestExportTotalFailure(t *testing.T) {
	r := &fakeRenderer{err: errors.New("down")}
	o := NewOrchestrator(r)

	// Empty input survives repair but yields nothing any tier can emit.
	res, err := o.Export(context.Background(), docState(""), "cv")

	var exportErr *ExportError
	if !errors.As(err, &exportErr) {
		t.Fatalf("err = %v, want *ExportError", err)
	}
	if res.Artifact != nil {
		t.Errorf("artifact = %+v, want nil", res.Artifact)
	}
	if res.Outcome.Succeeded {
		t.Errorf("outcome reports success on total failure")
	}
	if res.Trace[len(res.Trace)-1] != PhaseFailed {
		t.Errorf("trace = %v, want terminal failed phase", res.Trace)
	}
}

func TestExportDeterministicFallback(t *testing.T) {
	run := func() *Result {
		o := NewOrchestrator(&fakeRenderer{err: errors.New("down")})
		res, err := o.Export(context.Background(), docState(goodMarkup), "cv")
		if err != nil {
			t.Fatal(err)
		}
		return res
	}

	a, b := run(), run()
	if a.Artifact.Kind != b.Artifact.Kind {
		t.Errorf("artifact kinds differ: %s vs %s", a.Artifact.Kind, b.Artifact.Kind)
	}
	if len(a.Trace) != len(b.Trace) {
		t.Fatalf("traces differ: %v vs %v", a.Trace, b.Trace)
	}
	for i := range a.Trace {
		if a.Trace[i] != b.Trace[i] {
			t.Errorf("trace[%d] differs: %s vs %s", i, a.Trace[i], b.Trace[i])
		}
	}
	if string(a.Artifact.Data) != string(b.Artifact.Data) {
		t.Errorf("artifact bytes differ between identical runs")
	}
}

func TestExportSanitizesHostileMarkup(t *testing.T) {
	r := &fakeRenderer{err: errors.New("force text output")}
	o := NewOrchestrator(r)

	hostile := "<h1>Jane</h1><script>alert(1)</script><p onclick=\"x()\">Experienced analyst with strong background.</p>"
	res, err := o.Export(context.Background(), docState(hostile), "cv")
	if err != nil {
		t.Fatal(err)
	}
	text := string(res.Artifact.Data)
	if strings.Contains(text, "alert(1)") || strings.Contains(text, "onclick") {
		t.Errorf("hostile content survived sanitization:\n%s", text)
	}
}

func TestExportRecordsOutcomes(t *testing.T) {
	o := NewOrchestrator(&fakeRenderer{data: []byte("%PDF-fake")})

	for i := 0; i < 12; i++ {
		if _, err := o.Export(context.Background(), docState(goodMarkup), "cv"); err != nil {
			t.Fatal(err)
		}
	}
	got := o.Outcomes()
	if len(got) != 10 {
		t.Errorf("ring length = %d, want capped at 10", len(got))
	}
	for _, out := range got {
		if !out.Succeeded {
			t.Errorf("unexpected failed outcome %+v", out)
		}
	}
}

func TestExportLegacyDocTier(t *testing.T) {
	doc, err := renderLegacyDoc("<h1>Jane</h1><p>Body</p>")
	if err != nil {
		t.Fatal(err)
	}
	s := string(doc)
	if !strings.Contains(s, "schemas-microsoft-com:office:word") {
		t.Errorf("missing word namespace")
	}
	if !strings.Contains(s, "<h1>Jane</h1>") {
		t.Errorf("missing content")
	}
	if _, err := renderLegacyDoc("   "); err == nil {
		t.Errorf("expected error for empty content")
	}
}
