package config

const (
	EnvPrefix = "DOVL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv      = "DOVL_APP_ENV"
	EnvPort        = "DOVL_APP_PORT"
	EnvLogLevel    = "DOVL_LOG_LEVEL"
	EnvMongoURI    = "DOVL_MONGO_URI"
	EnvMongoDB     = "DOVL_MONGO_DATABASE"
	EnvRedisURL    = "DOVL_REDIS_URL"
	EnvJWTSecret   = "DOVL_JWT_SECRET"
	EnvJWTIssuer   = "DOVL_JWT_ISSUER"
	EnvJWTExpMins  = "DOVL_JWT_EXPIRATION_MINUTES"
	EnvServiceKind = "DOVL_SERVICE_KIND"

	EnvTax                   = "DOVL_TAX"
	EnvFreeShippingThreshold = "DOVL_FREE_SHIPPING_THRESHOLD"
	EnvShippingCost          = "DOVL_SHIPPING_COST"

	EnvCartSessionCookie = "DOVL_CART_SESSION_COOKIE"
	EnvCartSessionTTL    = "DOVL_CART_SESSION_TTL"
	EnvOrderNumberPrefix = "DOVL_ORDER_NUMBER_PREFIX"
)
