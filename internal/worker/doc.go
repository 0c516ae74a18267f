// Package worker runs calculator evaluations asynchronously over Redis Streams.
//
// A Queue assigns each request a UUIDv7 job id, stores a "queued" status under
// calc:job:<id> and adds the job to the work stream. Workers in a consumer
// group evaluate jobs, overwrite the status key with the result, publish it to
// the result stream and acknowledge the message. Failures to store or publish
// go to <result stream>.errors.
//
// Example usage:
//
//	queue := worker.NewQueue(redisClient, cfg.StreamKey, cfg.JobResultTTL)
//	status, err := queue.Submit(ctx, calc.Request{Expr: "2^10"}, nil, "alice")
//
//	w := worker.NewWorker(cfg, redisClient, evaluator, recorder, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop(ctx)
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, map[string]worker.Pinger{
//	    "sqlite": store,
//	    "redis":  queue,
//	}, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
