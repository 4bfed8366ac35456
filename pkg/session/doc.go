/*
Package session serializes access to stored workspace documents.

Every operation on a key runs under a per-key mutex that is reference counted and
dropped once idle. When a ports.DistributedLocker is configured the same critical
section is also guarded across replicas.
*/
package session
