// Package worker decodes many FHIR XML documents in parallel.
//
// BatchDecoder handles a fixed slice of jobs and keeps their order:
//
//	bd := worker.NewBatchDecoder(dec, 4, log)
//	br := bd.DecodeBatch(ctx, jobs)
//	if err := br.Err(); err != nil {
//	    // every failed job, prefixed with its ID
//	}
//
// Pool is the streaming variant: submit jobs as they arrive and read
// results from Results in completion order.
package worker
