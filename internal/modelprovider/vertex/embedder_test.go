package vertex

import "testing"

func TestEmbedder_EndpointURL_Global(t *testing.T) {
	e := &Embedder{project: "proj", location: "global", model: "text-embedding-004"}
	want := "https://aiplatform.googleapis.com/v1/projects/proj/locations/global/publishers/google/models/text-embedding-004:predict"
	if got := e.endpointURL(); got != want {
		t.Errorf("endpointURL() = %q, want %q", got, want)
	}
}

func TestEmbedder_EndpointURL_Regional(t *testing.T) {
	e := &Embedder{project: "proj", location: "us-east4", model: "text-embedding-004"}
	want := "https://us-east4-aiplatform.googleapis.com/v1/projects/proj/locations/us-east4/publishers/google/models/text-embedding-004:predict"
	if got := e.endpointURL(); got != want {
		t.Errorf("endpointURL() = %q, want %q", got, want)
	}
}
