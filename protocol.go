package swift

// Wire-level constants of the Swift HTTP API.
const (
	// headerContainerObjectCount and headerContainerBytesUsed are the
	// aggregate headers the store attaches to container and pseudo-directory
	// responses. Their presence is the only directory signal the store
	// provides; leaf objects never carry them.
	headerContainerObjectCount = "X-Container-Object-Count"
	headerContainerBytesUsed   = "X-Container-Bytes-Used"

	// headerObjectManifest marks a zero-length object as the logical
	// concatenation of every object sharing the named prefix.
	headerObjectManifest = "X-Object-Manifest"

	// headerNewest asks the store for the most recent replica rather than
	// the first one found.
	headerNewest = "X-Newest"

	// headerCopyDestination names the target of a server-side COPY.
	headerCopyDestination = "Destination"

	// headerTransID carries a client-generated id for log correlation.
	headerTransID = "X-Trans-Id-Extra"
)

// lastModifiedLayout is the fixed format of the store's Last-Modified
// header. The day of month is not zero-padded.
const lastModifiedLayout = "Mon, 2 Jan 2006 15:04:05 MST"
