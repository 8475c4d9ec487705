// Package job dispatches queue messages to named jobs.
//
// A message body is a JSON object with a "job" field naming the job and the
// job's input in the remaining fields. Enqueue builds such a body from any
// object payload; Manager reads it back, looks up the job, validates the
// input and runs it.
//
// # Defining Jobs
//
// The generic New constructor covers most jobs:
//
//	type WelcomePayload struct {
//	    UserID int    `json:"user_id"`
//	    Email  string `json:"email"`
//	}
//
//	welcome := job.New("send_welcome", func(ctx context.Context, p WelcomePayload) error {
//	    return mailer.SendWelcome(ctx, p.Email)
//	})
//
// Types implementing the Job interface directly control validation
// themselves.
//
// # Enqueueing
//
//	err := job.Enqueue(ctx, q, welcome, WelcomePayload{UserID: 1, Email: "a@b.co"})
//
// The body sent is {"user_id":1,"email":"a@b.co","job":"send_welcome"}.
//
// # Processing
//
//	m := job.NewManager(
//	    job.WithJobs(welcome),
//	    job.WithErrorHandler(func(ctx context.Context, err error, msg *queue.Message) {
//	        msg.Retry(queue.WithRetryDelay(time.Minute))
//	    }),
//	)
//	go consumer.Consume(ctx, m.ProcessBatch)
//
// ProcessBatch hands each message to the deferred hook stored in the
// context, so messages of a batch run concurrently. A message is
// acknowledged only when its job succeeds. Failures go to the error handler,
// which alone decides about retries.
package job
