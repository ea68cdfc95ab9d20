// Package resilience provides retry with exponential backoff and a circuit
// breaker. The database package retries connection attempts with Retry;
// the storage package guards backends with a CircuitBreaker.
package resilience
