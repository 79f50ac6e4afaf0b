// Package router provides the actor/mailbox shell that sits between the
// storage-map daemon's transport layer and the domain packages
// (storagemap, persistence): one StorageMapWorker goroutine per named
// storage map, reached only through its Router-assigned name, so a
// chunk write and a concurrent proof request for the same map are always
// serialized in arrival order and never race.
package router
