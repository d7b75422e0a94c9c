// Package redisqueue reads records from and writes records to a Redis list
// used as a FIFO queue.
//
// A [Writer] appends encoded records with RPUSH; a [Reader] pops them with
// LPOP until the list is empty, or, in blocking mode, waits on BLPOP until
// its context is cancelled. Because every pop is atomic, any number of
// workers may drain the same queue and each record is delivered to exactly
// one of them.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	src, err := redisqueue.NewReader(client, "ingest")
//	dst, err := redisqueue.NewWriter(client, "processed", redisqueue.WithCodec(redisqueue.MsgpackCodec{}))
//
// Readers and writers built from a client leave it open; those built with
// [DialReader] and [DialWriter] own their client and close it.
package redisqueue
