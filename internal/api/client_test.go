package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/tidwall/gjson"

	apierrors "github.com/lokhin/coursechat/internal/errors"
	"github.com/lokhin/coursechat/internal/models"
)

// fakeHTTPClient stubs Do; the embedded interface covers the methods the
// client never calls.
type fakeHTTPClient struct {
	tls_client.HttpClient
	doFunc  func(req *http.Request) (*http.Response, error)
	lastReq *http.Request
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.lastReq = req
	return f.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(t *testing.T, fake *fakeHTTPClient) *Client {
	t.Helper()
	client, err := NewClient(
		WithBaseURL("http://backend.test"),
		WithHTTPClient(fake),
	)
	if err != nil {
		t.Fatalf("NewClient() error: %v", err)
	}
	return client
}

func TestTaskStatus(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"percent": 55, "message": "embedding notes", "completed": false, "failed": false}`), nil
	}}
	client := newTestClient(t, fake)

	status, err := client.TaskStatus(context.Background(), "abc")
	if err != nil {
		t.Fatalf("TaskStatus() error: %v", err)
	}

	if status.Percent != 55 || status.Message != "embedding notes" || status.Completed || status.Failed {
		t.Errorf("unexpected status: %+v", status)
	}

	if got := fake.lastReq.URL.String(); got != "http://backend.test"+models.PathTaskStatus {
		t.Errorf("request URL = %q", got)
	}

	body, _ := io.ReadAll(fake.lastReq.Body)
	if gjson.GetBytes(body, "task_id").String() != "abc" {
		t.Errorf("request body = %s, want task_id abc", body)
	}
}

func TestTaskStatus_EmptyID(t *testing.T) {
	client := newTestClient(t, &fakeHTTPClient{})

	if _, err := client.TaskStatus(context.Background(), ""); err == nil {
		t.Error("expected error for empty task id")
	}
}

func TestTaskStatus_NetworkError(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}}
	client := newTestClient(t, fake)

	_, err := client.TaskStatus(context.Background(), "abc")
	if !errors.Is(err, apierrors.ErrTransportFailed) {
		t.Errorf("error = %v, want a transport error", err)
	}
}

func TestTaskStatus_NonSuccessStatus(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(500, `{"detail": "boom"}`), nil
	}}
	client := newTestClient(t, fake)

	_, err := client.TaskStatus(context.Background(), "abc")

	var te *apierrors.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if te.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", te.StatusCode)
	}
}

func TestStreamChat(t *testing.T) {
	streamBody := "data: {\"chunk\": \"hello\"}\n\n"
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, streamBody), nil
	}}
	client := newTestClient(t, fake)

	body, err := client.StreamChat(context.Background(), models.ChatRequest{
		UserRequest: "What is COMP7103 about?",
		UserEmail:   "u3yl@connect.hku.hk",
		UserID:      7,
	})
	if err != nil {
		t.Fatalf("StreamChat() error: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != streamBody {
		t.Errorf("stream body = %q, want %q", data, streamBody)
	}

	if got := fake.lastReq.Header.Get("Accept"); got != "text/event-stream" {
		t.Errorf("Accept header = %q", got)
	}

	reqBody, _ := io.ReadAll(fake.lastReq.Body)
	parsed := gjson.ParseBytes(reqBody)
	if parsed.Get("user_request").String() != "What is COMP7103 about?" {
		t.Errorf("user_request missing from body: %s", reqBody)
	}
	if parsed.Get("user_email").String() != "u3yl@connect.hku.hk" || parsed.Get("user_id").Int() != 7 {
		t.Errorf("identity missing from body: %s", reqBody)
	}
}

func TestStreamChat_EmptyRequest(t *testing.T) {
	client := newTestClient(t, &fakeHTTPClient{})

	if _, err := client.StreamChat(context.Background(), models.ChatRequest{}); err == nil {
		t.Error("expected error for empty user request")
	}
}

func TestStreamChat_ErrorStatusClosesBody(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(503, "service unavailable"), nil
	}}
	client := newTestClient(t, fake)

	_, err := client.StreamChat(context.Background(), models.ChatRequest{UserRequest: "q"})

	var te *apierrors.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want TransportError", err)
	}
	if te.StatusCode != 503 || !strings.Contains(te.Message, "service unavailable") {
		t.Errorf("unexpected error detail: %+v", te)
	}
}

func TestStartKnowledgeUpdate(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success": true, "task_id": "kb-42"}`), nil
	}}
	client := newTestClient(t, fake)

	taskID, err := client.StartKnowledgeUpdate(context.Background(), models.UpdateRequest{
		Email:    "u3yl@connect.hku.hk",
		Password: "secret",
		ID:       7,
	})
	if err != nil {
		t.Fatalf("StartKnowledgeUpdate() error: %v", err)
	}
	if taskID != "kb-42" {
		t.Errorf("taskID = %q, want kb-42", taskID)
	}
}

func TestStartKnowledgeUpdate_ServerRejection(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success": false, "error": "invalid credentials"}`), nil
	}}
	client := newTestClient(t, fake)

	_, err := client.StartKnowledgeUpdate(context.Background(), models.UpdateRequest{
		Email:    "u3yl@connect.hku.hk",
		Password: "wrong",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("error = %v, want the server rejection reason", err)
	}
}

func TestStartScheduleSync_MissingTaskID(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{"success": true}`), nil
	}}
	client := newTestClient(t, fake)

	if _, err := client.StartScheduleSync(context.Background(), "u3yl@connect.hku.hk"); err == nil {
		t.Error("expected error when the response carries no task_id")
	}
}

func TestListCourses(t *testing.T) {
	fake := &fakeHTTPClient{doFunc: func(*http.Request) (*http.Response, error) {
		return jsonResponse(200, `{
			"success": true,
			"data": [
				{"id": 3, "name": "COMP7103 Data Mining", "update_time_moodle": "2026-08-20T10:00:00"},
				{"id": 9, "name": "COMP7106 Big Data", "update_time_exambase": "2026-08-21T09:30:00"}
			]
		}`), nil
	}}
	client := newTestClient(t, fake)

	courses, err := client.ListCourses(context.Background(), "u3yl@connect.hku.hk")
	if err != nil {
		t.Fatalf("ListCourses() error: %v", err)
	}

	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}
	if courses[0].ID != 3 || courses[0].Name != "COMP7103 Data Mining" {
		t.Errorf("unexpected first course: %+v", courses[0])
	}
	if courses[0].UpdateTimeMoodle != "2026-08-20T10:00:00" {
		t.Errorf("UpdateTimeMoodle = %q", courses[0].UpdateTimeMoodle)
	}
	if courses[1].UpdateTimeExam != "2026-08-21T09:30:00" {
		t.Errorf("UpdateTimeExam = %q", courses[1].UpdateTimeExam)
	}
}

func TestClosedClientRejectsRequests(t *testing.T) {
	client := newTestClient(t, &fakeHTTPClient{})
	client.Close()

	if _, err := client.TaskStatus(context.Background(), "abc"); !errors.Is(err, apierrors.ErrClientClosed) {
		t.Errorf("TaskStatus on closed client = %v, want ErrClientClosed", err)
	}
	if _, err := client.StreamChat(context.Background(), models.ChatRequest{UserRequest: "q"}); !errors.Is(err, apierrors.ErrClientClosed) {
		t.Errorf("StreamChat on closed client = %v, want ErrClientClosed", err)
	}
}
