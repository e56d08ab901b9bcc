package worker_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"taxdoc/apps/processor/features/failedevent"
	"taxdoc/apps/processor/internal/config"
	"taxdoc/apps/processor/internal/worker"
)

type dispatcherFixture struct {
	jobs        *MockJobUpdater
	ext         *MockExtractor
	gw          *MockGateway
	pub         *MockPublisher
	deadLetters *MockDeadLetterRepo
	dispatcher  *worker.Dispatcher
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		jobs:        new(MockJobUpdater),
		ext:         new(MockExtractor),
		gw:          new(MockGateway),
		pub:         new(MockPublisher),
		deadLetters: new(MockDeadLetterRepo),
	}
	orch := worker.NewOrchestrator(f.jobs, f.ext, f.gw)
	f.dispatcher = worker.NewDispatcher(orch, f.pub, f.deadLetters, discardAudit(), "uploads")
	return f
}

func message(t *testing.T, payload interface{}) *nsq.Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return &nsq.Message{Body: body}
}

func TestHandleMessage_S3Upload_PublishesFollowOns(t *testing.T) {
	f := newDispatcherFixture()

	f.jobs.On("Update", mock.Anything, "20240101_ab12cd34", mock.Anything).Return(nil)
	f.ext.On("Extract", mock.Anything, mock.Anything).Return(testFields(), nil)

	var published []string
	f.pub.On("Publish", config.TopicJobEvents, mock.Anything).Run(func(args mock.Arguments) {
		var ev worker.Envelope
		_ = json.Unmarshal(args.Get(1).([]byte), &ev)
		published = append(published, ev.EventType)
	}).Return(nil).Twice()

	msg := message(t, map[string]interface{}{
		"event_type":  "s3_upload",
		"bucket_name": "w2-bucket",
		"object_key":  "uploads/20240101_ab12cd34/w2.pdf",
		"event_name":  "ObjectCreated:Put",
		"timestamp":   "2024-01-01T00:00:00Z",
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)

	assert.ElementsMatch(t, []string{worker.EventExternalUpload, worker.EventExternalDataUpdate}, published)
	f.pub.AssertExpectations(t)
}

func TestHandleMessage_MalformedKey_PermanentNoMutation(t *testing.T) {
	f := newDispatcherFixture()

	f.deadLetters.On("Save", mock.Anything, mock.MatchedBy(func(ev *failedevent.FailedEvent) bool {
		return ev.EventType == worker.EventS3Upload && ev.Error != ""
	})).Return(nil).Once()

	msg := message(t, map[string]interface{}{
		"event_type":  "s3_upload",
		"bucket_name": "w2-bucket",
		"object_key":  "somewhere-else/w2.pdf",
	})

	// permanently malformed: acked, dead-lettered, and no job mutation
	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)

	f.jobs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	f.ext.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	f.deadLetters.AssertExpectations(t)
}

func TestHandleMessage_PoisonPill(t *testing.T) {
	f := newDispatcherFixture()

	err := f.dispatcher.HandleMessage(&nsq.Message{Body: []byte("{not json")})
	assert.NoError(t, err)
	f.jobs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleMessage_EmptyBody(t *testing.T) {
	f := newDispatcherFixture()
	assert.NoError(t, f.dispatcher.HandleMessage(&nsq.Message{Body: nil}))
}

func TestHandleMessage_MissingEventTypeDefaultsToS3Upload(t *testing.T) {
	f := newDispatcherFixture()

	f.jobs.On("Update", mock.Anything, "20240101_ab12cd34", mock.Anything).Return(nil)
	f.ext.On("Extract", mock.Anything, mock.Anything).Return(testFields(), nil)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	msg := message(t, map[string]interface{}{
		"bucket_name": "w2-bucket",
		"object_key":  "uploads/20240101_ab12cd34/w2.pdf",
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)
	f.ext.AssertCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestHandleMessage_RetryableSurfacedToQueue(t *testing.T) {
	f := newDispatcherFixture()

	f.jobs.On("Update", mock.Anything, "20240101_ab12cd34", mock.Anything).
		Return(errors.New("record api down"))

	msg := message(t, map[string]interface{}{
		"event_type":  "s3_upload",
		"bucket_name": "w2-bucket",
		"object_key":  "uploads/20240101_ab12cd34/w2.pdf",
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.Error(t, err) // surfaced so NSQ redelivers
	f.deadLetters.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestHandleMessage_ExternalUpload_RoutesToGateway(t *testing.T) {
	f := newDispatcherFixture()

	f.gw.On("SubmitUpload", mock.Anything, "s3://w2-bucket/uploads/j1/w2.pdf", "j1").
		Return("file-123", nil)
	f.jobs.On("Update", mock.Anything, "j1", mock.Anything).Return(nil)

	msg := message(t, map[string]interface{}{
		"event_type": "external_upload",
		"job_id":     "j1",
		"s3_url":     "s3://w2-bucket/uploads/j1/w2.pdf",
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)
	f.gw.AssertExpectations(t)
	// no follow-on events from the external phases
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestHandleMessage_ExternalUpload_MissingFieldsDeadLettered(t *testing.T) {
	f := newDispatcherFixture()

	f.deadLetters.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	msg := message(t, map[string]interface{}{
		"event_type": "external_upload",
		"job_id":     "j1",
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)
	f.gw.AssertNotCalled(t, "SubmitUpload", mock.Anything, mock.Anything, mock.Anything)
	f.deadLetters.AssertExpectations(t)
}

func TestHandleMessage_ExternalDataUpdate_InvalidFieldsDeadLettered(t *testing.T) {
	f := newDispatcherFixture()

	f.deadLetters.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	msg := message(t, map[string]interface{}{
		"event_type": "external_data_update",
		"job_id":     "j1",
		"w2_data": map[string]interface{}{
			"ein":                       "12-3456789",
			"ssn":                       "123-45-6789",
			"wages_box1":                "-100.00",
			"federal_tax_withheld_box2": "5000.00",
		},
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)
	f.gw.AssertNotCalled(t, "SubmitData", mock.Anything, mock.Anything, mock.Anything)
	f.deadLetters.AssertExpectations(t)
}

func TestHandleMessage_ExternalDataUpdate_Success(t *testing.T) {
	f := newDispatcherFixture()

	f.gw.On("SubmitData", mock.Anything, mock.MatchedBy(func(fields interface{}) bool {
		return fields != nil
	}), "j1").Return("report-1", "file-9", nil)
	f.jobs.On("Update", mock.Anything, "j1", mock.Anything).Return(nil)

	msg := message(t, map[string]interface{}{
		"event_type": "external_data_update",
		"job_id":     "j1",
		"w2_data": map[string]interface{}{
			"ein":                       "12-3456789",
			"ssn":                       "123-45-6789",
			"wages_box1":                "50000.00",
			"federal_tax_withheld_box2": "5000.00",
		},
	})

	err := f.dispatcher.HandleMessage(msg)
	assert.NoError(t, err)
	f.gw.AssertExpectations(t)
}

func TestHandleMessage_FollowOnPublishFailure(t *testing.T) {
	f := newDispatcherFixture()

	f.jobs.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.ext.On("Extract", mock.Anything, mock.Anything).Return(testFields(), nil)
	f.pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("nsqd unreachable"))

	msg := message(t, map[string]interface{}{
		"event_type":  "s3_upload",
		"bucket_name": "w2-bucket",
		"object_key":  "uploads/20240101_ab12cd34/w2.pdf",
	})

	// surfaced so the whole phase is redelivered and republished
	err := f.dispatcher.HandleMessage(msg)
	assert.Error(t, err)
}
