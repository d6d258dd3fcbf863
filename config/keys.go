package config

import "maps"

// Recognized configuration keys. Values are always strings; booleans are "Y" or "N".
const (
	KeyAPIKey          = "GRIST_API_KEY"
	KeySelfManaged     = "GRIST_SELF_MANAGED"
	KeySelfManagedHome = "GRIST_SELF_MANAGED_HOME"
	KeySingleOrg       = "GRIST_SELF_MANAGED_SINGLE_ORG"
	KeyProtocol        = "GRIST_SERVER_PROTOCOL"
	KeyAPIServer       = "GRIST_API_SERVER"
	KeyAPIRoot         = "GRIST_API_ROOT"
	KeyTeamSite        = "GRIST_TEAM_SITE"
	KeyWorkspaceID     = "GRIST_WORKSPACE_ID"
	KeyDocID           = "GRIST_DOC_ID"
	KeyRaiseError      = "GRIST_RAISE_ERROR"
	KeySafeMode        = "GRIST_SAFEMODE"
)

// Flag values
const (
	Yes = "Y"
	No  = "N"
)

// HomeConfigFile is the config file location, relative to the user's home directory
const HomeConfigFile = ".gristapi/config.json"

var defaults = map[string]string{
	KeyAPIKey:          "<your_api_key_here>",
	KeySelfManaged:     No,
	KeySelfManagedHome: "http://localhost:8484",
	KeySingleOrg:       Yes,
	KeyProtocol:        "https://",
	KeyAPIServer:       "getgrist.com",
	KeyAPIRoot:         "api",
	KeyTeamSite:        "docs",
	KeyWorkspaceID:     "<your_ws_id_here>",
	KeyDocID:           "<your_doc_id_here>",
	KeyRaiseError:      Yes,
	KeySafeMode:        No,
}

// flagKeys must hold exactly Yes or No after resolution
var flagKeys = []string{KeySelfManaged, KeySingleOrg, KeyRaiseError, KeySafeMode}

// Defaults returns a copy of the built-in default configuration
func Defaults() map[string]string {
	return maps.Clone(defaults)
}
