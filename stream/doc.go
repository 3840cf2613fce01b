// Package stream is the streaming controller: the façade that ties the memory
// pool, the resident registry, the request pipeline, the spatial index, and
// the virtual-texture tables into one per-frame system.
//
// The intended loop is one Update call per frame with the camera position and
// velocity. Update advances the frame counter, walks the configured streaming
// rings around the camera (biasing prefetch rings toward the predicted camera
// position), queues loads for anything missing at the ring's priority, and
// runs the periodic maintenance work: pool compaction when fragmentation is
// high and memory is tight, and closing idle asset file handles.
//
// Everything else — explicit requests, residency queries, pinning, LOD
// switching, virtual-texture pages, telemetry — is available at any time from
// any goroutine.
package stream
