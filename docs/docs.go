// Package docs registers the OpenAPI document served under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/config": {
            "get": {
                "description": "Returns the candy machine parameters, fetched once per process",
                "produces": ["application/json"],
                "tags": ["config"],
                "summary": "Get mint configuration",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/api/nfts/{address}": {
            "get": {
                "description": "Returns the collection NFTs held by address. Cached results may be stale for up to the cache timeout; pass refresh=true to bypass the cache.",
                "produces": ["application/json"],
                "tags": ["nfts"],
                "summary": "List NFTs owned by a wallet",
                "parameters": [
                    {"type": "string", "description": "Wallet address", "name": "address", "in": "path", "required": true},
                    {"type": "boolean", "description": "Bypass the cache", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.NftListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.NftListResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/model.NftListResponse"}}
                }
            }
        },
        "/api/session": {
            "get": {
                "description": "Returns the session read model. Never blocks on network calls.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Get wallet session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wallet.Snapshot"}}
                }
            }
        },
        "/api/session/connect": {
            "post": {
                "description": "Connects the wallet provider of the given type",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Connect wallet",
                "parameters": [
                    {"description": "Wallet type", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/model.ConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wallet.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/session/disconnect": {
            "post": {
                "description": "Ends the session. Always succeeds unless a connect is in progress.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Disconnect wallet",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wallet.Snapshot"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/session/balance": {
            "post": {
                "description": "Reloads the balance of the connected address. No-op when nothing is connected.",
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Refresh wallet balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/wallet.Snapshot"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/session/qr": {
            "get": {
                "description": "Returns a PNG QR code of the connected wallet address",
                "produces": ["image/png"],
                "tags": ["session"],
                "summary": "Connected address as QR code",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/mint": {
            "get": {
                "description": "Returns the mint state and, once finished, its outcome",
                "produces": ["application/json"],
                "tags": ["mint"],
                "summary": "Mint status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mint.Status"}}
                }
            }
        },
        "/api/mint/confirm": {
            "post": {
                "description": "Starts a new mint cycle. Requires the mint configuration.",
                "produces": ["application/json"],
                "tags": ["mint"],
                "summary": "Open the mint confirmation",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mint.Status"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/mint/cancel": {
            "post": {
                "description": "Returns to idle. Rejected while a mint is in progress.",
                "produces": ["application/json"],
                "tags": ["mint"],
                "summary": "Cancel or close the mint dialog",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/mint.Status"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        },
        "/api/mint/submit": {
            "post": {
                "description": "Mints for the connected wallet. Poll GET /api/mint for the outcome.",
                "produces": ["application/json"],
                "tags": ["mint"],
                "summary": "Submit the mint",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/model.MintSubmitResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/model.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "mint.Failure": {
            "type": "object",
            "properties": {"reason": {"type": "string"}}
        },
        "mint.Status": {
            "type": "object",
            "properties": {
                "attempt": {"type": "integer"},
                "failure": {"$ref": "#/definitions/mint.Failure"},
                "state": {"type": "string"},
                "success": {"$ref": "#/definitions/mint.Success"}
            }
        },
        "mint.Success": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "signature": {"type": "string"},
                "uri": {"type": "string"}
            }
        },
        "model.ConnectRequest": {
            "type": "object",
            "properties": {"type": {"type": "string"}}
        },
        "model.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "model.MintSubmitResponse": {
            "type": "object",
            "properties": {
                "attempt": {"type": "integer"},
                "state": {"type": "string"}
            }
        },
        "model.NftListResponse": {
            "type": "object",
            "properties": {
                "nfts": {"type": "array", "items": {"$ref": "#/definitions/model.NftRecord"}},
                "success": {"type": "boolean"}
            }
        },
        "model.NftRecord": {
            "type": "object",
            "properties": {
                "imageUrl": {"type": "string"},
                "metadataUri": {"type": "string"},
                "name": {"type": "string"},
                "nftAddress": {"type": "string"}
            }
        },
        "wallet.Descriptor": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "wallet.Snapshot": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "availableWallets": {"type": "array", "items": {"$ref": "#/definitions/wallet.Descriptor"}},
                "balance": {"type": "string"},
                "isConnected": {"type": "boolean"},
                "isReady": {"type": "boolean"},
                "lamports": {"type": "integer"},
                "state": {"type": "string"},
                "wallet": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "BELPY mint API",
	Description:      "Wallet session, NFT gallery and mint flow for the BELPY collection site.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
