package core

import (
	"encoding/json"
	"log"

	"bitbucket.org/sinbad/filestore-client/providers"
)

// writeFileByKeyRequest is the wire shape of the reverse callback (tag
// 2001): the server pushing one chunk into a client-held handle during
// async pull.
type writeFileByKeyRequest struct {
	Key    uint64 `json:"key"`
	Offset uint64 `json:"offset"`
	Data   []byte `json:"data"`
}

// InstallCallbackEndpoint registers the inbound callback endpoint on
// transport, delegating every write_file_by_key invocation to registry.
// Must be called before issuing async_read.
//
// Errors from the Registry are logged and swallowed: the server is
// authoritative on what it sends, and the client cannot reject individual
// chunks mid-stream.
func InstallCallbackEndpoint(transport providers.Transport, registry *Registry) {
	transport.RegisterHandler(providers.TagWriteFileByKey, func(raw []byte) {
		var req writeFileByKeyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Printf("callback: malformed write_file_by_key frame: %v", err)
			return
		}
		if err := registry.Write(TransferKey(req.Key), int64(req.Offset), req.Data); err != nil {
			log.Printf("callback: write_file_by_key key=%d offset=%d: %v", req.Key, req.Offset, err)
		}
	})
}
