package classify

// remediations maps every kind to a non-empty user-facing hint. Phrasing
// follows the platform troubleshooting texts the product has always shown.
var remediations = map[Kind]string{
	PlatformUnsupported:         "This URL is not from a supported platform. Supported: YouTube, TikTok, Instagram, Facebook, Douyin.",
	CredentialStoreInaccessible: "A browser cookie store could not be read. Close the browser and retry, or export cookies to a manual cookie file.",
	CredentialStoreAbsent:       "No browser session was found. Log into the platform in Chrome, Firefox, or Edge first, or provide a manual cookie file.",
	ContentAgeRestricted:        "This video is age-restricted (18+). Export your session cookies to the manual cookie file (see config cookie_file), or try the same video on an alternative platform.",
	ContentPrivateOrLoginRequired: "This video is private or requires login. Log into the platform in your browser first; only public content works without a session.",
	ContentRegionBlocked:        "This video is blocked in your region. Try the share link from the platform's app, or a mirror on another platform.",
	ContentUnavailable:          "This video was removed or never existed. Check the URL for typos.",
	RateLimited:                 "The platform is throttling requests from this address. Wait a few minutes before retrying.",
	TransientNetwork:            "A network failure interrupted the download. Check connectivity and retry.",
	Cancelled:                   "The request was cancelled before a source succeeded.",
	Unknown:                     "The platform returned an unrecognized error. Try an alternative platform for this video.",
}

// Remediation returns the caller-facing hint for a kind. Every kind has
// one; unknown values fall back to the Unknown hint.
func Remediation(k Kind) string {
	if r, ok := remediations[k]; ok {
		return r
	}
	return remediations[Unknown]
}
