package transfer

// MetaIDResponse is returned by container creation and publish calls.
type MetaIDResponse struct {
	ID string `json:"id"`
}

type MetaErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

type FacebookPageToken struct {
	ID          string `json:"id"`
	AccessToken string `json:"access_token"`
}

type FacebookReelStart struct {
	VideoID   string `json:"video_id"`
	UploadURL string `json:"upload_url"`
}

type FacebookSuccess struct {
	Success bool `json:"success"`
}
