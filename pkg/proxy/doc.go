// Package proxy implements the JSON-RPC request pipeline.
//
// Every inbound HTTP request gets a RequestContext that an ordered Chain of
// stages mutates in place. A stage either lets the request proceed to the
// next stage, writes a response itself and stops the chain, or fails. The
// last stage of a valid chain is terminal: it forwards the request to a
// backend and stores the backend response on the context. The Handler then
// writes that response to the caller.
//
// # Errors
//
// A *PublicError is rendered as a JSON-RPC error envelope with the HTTP
// status it carries. Any other error is logged and answered with a bare
// HTTP 500.
//
// # Draining
//
// Stages that own background work (batched writers, aggregators) report
// completion through Drain. PollDrain implements the common polling loop;
// stages without background work return Drained.
package proxy
